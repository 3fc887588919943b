// Package audio plays the optional chime that accompanies each overlay.
// It uses the beep library to decode WAV, OGG and MP3 files once and
// replays the cached buffer with volume control.
package audio
