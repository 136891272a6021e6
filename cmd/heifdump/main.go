package main

import (
	"flag"
	"fmt"
	"os"
	"sort"

	"github.com/dustin/go-humanize"
	"github.com/kjk/common/u"

	heif "github.com/imagista/go-heif"
)

var (
	must = u.Must

	flgMeta bool
)

func logf(format string, args ...interface{}) {
	fmt.Printf(format, args...)
}

func usage() {
	logf("heifdump prints the structure of HEIF / AVIF files\n")
	logf("usage: heifdump [options] <file>...\n")
	flag.PrintDefaults()
}

func dumpMetadata(d *heif.Decoder, idx int) {
	m, err := d.Metadata(idx)
	must(err)
	if m.EXIF == nil && m.XMP == nil {
		logf("  no metadata\n")
		return
	}
	if m.EXIF != nil {
		tags := make([]string, 0, len(m.EXIF))
		for tag := range m.EXIF {
			tags = append(tags, tag)
		}
		sort.Strings(tags)
		for _, tag := range tags {
			logf("  exif %-24s %v\n", tag, m.EXIF[tag])
		}
	}
	if m.XMP != nil {
		logf("  xmp: %s\n", humanize.Bytes(uint64(len(m.XMP))))
	}
}

func dumpFile(path string) {
	st, err := os.Stat(path)
	must(err)
	d, err := heif.OpenFile(path)
	must(err)
	defer d.Close()

	format, err := d.Format()
	must(err)
	nImages, err := d.NumImages()
	must(err)
	logf("%s: %s, %s, %d image(s)\n", path, format, humanize.Bytes(uint64(st.Size())), nImages)

	for i := 0; i < nImages; i++ {
		w, h, err := d.Size(i)
		must(err)
		alpha, err := d.HasAlpha(i)
		must(err)
		logf("image %d: %dx%d, alpha: %v\n", i, w, h, alpha)
		nThumbs, err := d.NumThumbnails(i)
		must(err)
		for j := 0; j < nThumbs; j++ {
			tw, th, err := d.ThumbnailSize(i, j)
			must(err)
			logf("  thumbnail %d: %dx%d\n", j, tw, th)
		}
		if flgMeta {
			dumpMetadata(d, i)
		}
	}
}

func main() {
	flag.Usage = usage
	flag.BoolVar(&flgMeta, "meta", false, "also dump EXIF and XMP metadata")
	flag.Parse()
	if flag.NArg() == 0 {
		usage()
		os.Exit(1)
	}
	logf("libheif %s\n", heif.Version())
	for _, path := range flag.Args() {
		dumpFile(path)
	}
}
