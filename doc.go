// Package irdetect detects infrared remote-control frames in a stream of
// receiver-line samples.
//
// A Detector drives a pulse classifier one sample at a time, tracks the
// absolute sample position, and surfaces completed frames with their start
// and end positions. Input must be resampled to GetSampleRate() before
// feeding; any nonzero sample byte is the idle (high) level, zero is a mark.
//
// Typical use:
//
//	d := irdetect.New()
//	d.Reset()
//	for {
//		fd := d.Detect(nextChunk())
//		if fd.ProtocolID != 0 {
//			handle(fd)
//		}
//	}
//
// A Detector carries no synchronization: one stream, one goroutine, one
// Detector. Decode independent streams with independent Detectors.
package irdetect
