package models

// MP3 frame-header scan. Audio duration has to be recoverable from the
// cached bytes alone (there is no sidecar manifest), so restoration walks
// the MPEG frames and sums their playback time instead of shelling out to
// ffprobe.

var mpeg1Layer3Bitrates = [16]int{
	0, 32, 40, 48, 56, 64, 80, 96, 112, 128, 160, 192, 224, 256, 320, 0,
}

var mpeg2Layer3Bitrates = [16]int{
	0, 8, 16, 24, 32, 40, 48, 56, 64, 80, 96, 112, 128, 144, 160, 0,
}

var sampleRates = [4][4]int{
	{11025, 12000, 8000, 0},  // MPEG 2.5
	{0, 0, 0, 0},             // reserved
	{22050, 24000, 16000, 0}, // MPEG 2
	{44100, 48000, 32000, 0}, // MPEG 1
}

// MP3Duration returns the playback duration in seconds of Layer III MPEG
// audio data. Invalid bytes between frames are skipped, so a truncated
// final frame or junk prefix does not abort the scan.
func MP3Duration(data []byte) float64 {
	i := skipID3(data)
	var seconds float64

	for i+4 <= len(data) {
		frameLen, frameSec, ok := parseFrameHeader(data[i:])
		if !ok {
			i++
			continue
		}
		seconds += frameSec
		i += frameLen
	}
	return seconds
}

func skipID3(data []byte) int {
	if len(data) < 10 || data[0] != 'I' || data[1] != 'D' || data[2] != '3' {
		return 0
	}
	// Tag size is a 4-byte synchsafe integer.
	size := int(data[6])<<21 | int(data[7])<<14 | int(data[8])<<7 | int(data[9])
	return 10 + size
}

func parseFrameHeader(b []byte) (frameLen int, seconds float64, ok bool) {
	if len(b) < 4 || b[0] != 0xFF || b[1]&0xE0 != 0xE0 {
		return 0, 0, false
	}

	version := (b[1] >> 3) & 0x03 // 3 = MPEG1, 2 = MPEG2, 0 = MPEG2.5
	layer := (b[1] >> 1) & 0x03   // 1 = Layer III
	if version == 1 || layer != 1 {
		return 0, 0, false
	}

	bitrateIdx := b[2] >> 4
	rateIdx := (b[2] >> 2) & 0x03
	padding := int((b[2] >> 1) & 0x01)

	var bitrate int
	if version == 3 {
		bitrate = mpeg1Layer3Bitrates[bitrateIdx]
	} else {
		bitrate = mpeg2Layer3Bitrates[bitrateIdx]
	}
	sampleRate := sampleRates[version][rateIdx]
	if bitrate == 0 || sampleRate == 0 {
		return 0, 0, false
	}

	samplesPerFrame := 1152
	if version != 3 {
		samplesPerFrame = 576
	}

	frameLen = samplesPerFrame / 8 * bitrate * 1000 / sampleRate
	frameLen += padding
	seconds = float64(samplesPerFrame) / float64(sampleRate)
	return frameLen, seconds, true
}
