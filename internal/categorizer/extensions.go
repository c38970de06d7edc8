package categorizer

// extClass is the closed partition over lowercase extensions from spec.md
// §3 and the normative tables in §6.
type extClass int

const (
	extOther extClass = iota
	extVideoPrimary
	extVideoAccessory
	extAudio
	extDiscImage
)

// videoPrimaryExts enumerates real video containers (spec.md §6).
var videoPrimaryExts = map[string]bool{
	"3gp": true, "3g2": true, "3gpp": true, "asf": true, "avi": true,
	"divx": true, "dpg": true, "evo": true, "flv": true, "f4v": true,
	"ifo": true, "k3g": true, "m1v": true, "m2v": true, "m4v": true,
	"mkv": true, "m4k": true, "mov": true, "mp2v": true, "m2ts": true,
	"m2t": true, "m4b": true, "m4p": true, "mp4": true, "mpeg": true,
	"mpg": true, "mpv": true, "mpv2": true, "mxf": true, "nsr": true,
	"nsv": true, "ogv": true, "ogm": true, "rm": true, "rmvb": true,
	"ram": true, "skm": true, "swf": true, "tp": true, "tpr": true,
	"ts": true, "vob": true, "webm": true, "wmv": true, "wmp": true,
	"wtv": true,
}

// videoAccessoryExts enumerates subtitles, playlists, and disc-menu files.
var videoAccessoryExts = map[string]bool{
	"ass": true, "xss": true, "asx": true, "bdjo": true, "bdmv": true,
	"clpi": true, "idx": true, "mpl": true, "mpls": true, "psb": true,
	"rt": true, "sbv": true, "smi": true, "srr": true, "srt": true,
	"ssa": true, "ssf": true, "sub": true, "sup": true, "ttml": true,
	"usf": true, "vtt": true, "wmx": true, "wvx": true,
}

// audioExts enumerates audio containers and playlists.
var audioExts = map[string]bool{
	"aac": true, "ac3": true, "aiff": true, "alac": true, "amr": true,
	"ape": true, "cda": true, "cue": true, "dsf": true, "dts": true,
	"dtshd": true, "eac3": true, "flac": true, "m3u": true, "m3u8": true,
	"m4a": true, "m1a": true, "m2a": true, "m4k": true, "ma": true,
	"mka": true, "mod": true, "mp2": true, "mp3": true, "mpc": true,
	"ogg": true, "opus": true, "pls": true, "rma": true, "tak": true,
	"tta": true, "wav": true, "wax": true, "wma": true, "wmv": true,
	"xspf": true,
}

// classify returns the extension class for a lowercase, dotless ext.
// "iso" is deliberately excluded: its class is dual-use and decided by the
// dual-use rule in the caller (see Classify in categorizer.go), not by this
// table.
func classify(ext string) extClass {
	switch {
	case videoPrimaryExts[ext]:
		return extVideoPrimary
	case videoAccessoryExts[ext]:
		return extVideoAccessory
	case audioExts[ext]:
		return extAudio
	default:
		return extOther
	}
}
