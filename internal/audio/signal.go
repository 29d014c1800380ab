package audio

// Asset is an uploaded audio file as received at ingress
type Asset struct {
	Data     []byte
	Filename string
}

// Signal is decoded mono audio at its native sample rate.
// Samples are normalised to [-1, 1].
type Signal struct {
	Samples    []float64
	SampleRate int
}

// Len returns the number of samples
func (s *Signal) Len() int {
	return len(s.Samples)
}

// Duration returns the signal length in seconds
func (s *Signal) Duration() float64 {
	if s.SampleRate <= 0 {
		return 0
	}
	return float64(len(s.Samples)) / float64(s.SampleRate)
}
