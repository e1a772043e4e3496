package telemetry

import (
	"fmt"
	"io"
	"log/slog"
)

// SentenceTalker prefixes every odometry sentence.
const SentenceTalker = "$TLODO"

// calculateChecksum calculates the XOR checksum for a sentence
func calculateChecksum(sentence string) string {
	var checksum byte
	for i := 1; i < len(sentence); i++ { // Skip the '$' character
		checksum ^= sentence[i]
	}
	return fmt.Sprintf("%02X", checksum)
}

// formatSentence formats a complete sentence with checksum
func formatSentence(sentence string) string {
	checksum := calculateChecksum(sentence)
	return fmt.Sprintf("%s*%s\r\n", sentence, checksum)
}

// FormatOdometrySentence renders o as a checksummed, CRLF terminated sentence:
// speed, acceleration, rpm, gear, engine, trailer, position, orientation in
// degrees, parking brake.
func FormatOdometrySentence(o Odometry) string {
	sentence := fmt.Sprintf("%s,%.2f,%.3f,%.3f,%.3f,%.0f,%d,%d,%d,%.3f,%.3f,%.3f,%.2f,%.2f,%.2f,%d",
		SentenceTalker,
		o.Speed,
		o.AccX, o.AccY, o.AccZ,
		o.RPM,
		o.Gear,
		flag(o.EngineRunning),
		flag(o.TrailerConnected),
		o.X, o.Y, o.Z,
		o.Heading, o.Pitch, o.Roll,
		flag(o.ParkingBrake))

	return formatSentence(sentence)
}

func flag(b bool) int {
	if b {
		return 1
	}
	return 0
}

// SentencePublisher streams odometry sentences to a writer such as a serial
// port. Sentences are queued by SendOdometry and written by SpinSome.
type SentencePublisher struct {
	w       io.Writer
	logger  *slog.Logger
	pending []string
}

// NewSentencePublisher creates a publisher writing to w
func NewSentencePublisher(w io.Writer, logger *slog.Logger) *SentencePublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &SentencePublisher{w: w, logger: logger}
}

// SendOdometry queues one sentence
func (p *SentencePublisher) SendOdometry(o Odometry) error {
	if p.w == nil {
		return ErrNoWriter
	}
	p.pending = append(p.pending, FormatOdometrySentence(o))
	return nil
}

// SpinSome writes the queued sentences. A failed write drops the rest of the queue.
func (p *SentencePublisher) SpinSome() {
	for i, sentence := range p.pending {
		if _, err := io.WriteString(p.w, sentence); err != nil {
			p.logger.Warn("sentence write failed", "dropped", len(p.pending)-i, "error", err)
			break
		}
	}
	p.pending = p.pending[:0]
}

// Pending returns the number of queued sentences
func (p *SentencePublisher) Pending() int {
	return len(p.pending)
}
