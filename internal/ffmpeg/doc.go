// Package ffmpeg wraps the ffmpeg and ffprobe binaries for video frame
// extraction. Frames are sampled at evenly spaced timestamps across the
// clip's duration and decoded into images for perceptual hashing.
package ffmpeg
