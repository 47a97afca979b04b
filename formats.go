package mpv_archive

// DefaultFormatSpecs is the ordered list of downloader format selectors,
// tried best-first. A later entry is only attempted after a full downloader
// invocation with the previous entry has failed.
var DefaultFormatSpecs = []string{
	"bv*[ext=mp4]+ba[ext=m4a]/b[ext=mp4]",
	"b[ext=mp4]/b",
	"b",
}
