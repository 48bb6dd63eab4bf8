package zoog

// R128LUFS is the EBU R128 target loudness in LUFS.
const R128LUFS Decibels = -23

// ReplayGainLUFS is the ReplayGain target loudness in LUFS.
const ReplayGainLUFS Decibels = -18

// Comment tag names carrying Q7.8 fixed-point gain adjustments.
const (
	TagTrackGain = "R128_TRACK_GAIN"
	TagAlbumGain = "R128_ALBUM_GAIN"
)

// FieldNameSeparator separates a comment's key from its value.
const FieldNameSeparator = '='

// OggOpusExtensions are the lowercase file extensions (without the leading
// dot) treated as "probably a media file, not a tags file" by the comment
// editor's protective tags-in/tags-out check.
var OggOpusExtensions = [...]string{"ogg", "ogv", "oga", "ogx", "ogm", "spx", "opus"}
