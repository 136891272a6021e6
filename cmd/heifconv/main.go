package main

import (
	"flag"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/kjk/common/u"
	"golang.org/x/image/draw"

	heif "github.com/imagista/go-heif"
)

var (
	must    = u.Must
	panicIf = u.PanicIf

	flgOut      string
	flgFormat   string
	flgQuality  int
	flgLossless bool
	flgSpeed    int
	flgPreset   string
	flgResize   string
)

func logf(format string, args ...interface{}) {
	fmt.Printf(format, args...)
}

func usage() {
	logf("heifconv converts images to HEIF / AVIF\n")
	logf("usage: heifconv [options] <input> \n")
	flag.PrintDefaults()
}

func outFormat() heif.Format {
	name := flgFormat
	if name == "" {
		switch strings.ToLower(filepath.Ext(flgOut)) {
		case ".heic", ".heif":
			name = "heif"
		default:
			name = "avif"
		}
	}
	switch name {
	case "heif":
		return heif.FormatHEIF
	case "avif":
		return heif.FormatAVIF
	}
	panicIf(true, "unknown format %q, expected heif or avif", name)
	return heif.FormatUnknown
}

func parseResize(s string) (int, int) {
	ws, hs, ok := strings.Cut(s, "x")
	panicIf(!ok, "bad -resize %q, expected WxH", s)
	var w, h int
	_, err := fmt.Sscanf(ws+" "+hs, "%d %d", &w, &h)
	panicIf(err != nil || w < 1 || h < 1, "bad -resize %q, expected WxH", s)
	return w, h
}

func resize(img image.Image, w, h int) image.Image {
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Over, nil)
	return dst
}

func main() {
	flag.Usage = usage
	flag.StringVar(&flgOut, "o", "", "output file (default: input with extension swapped)")
	flag.StringVar(&flgFormat, "format", "", "output format, heif or avif (default: from output extension)")
	flag.IntVar(&flgQuality, "quality", 60, "lossy quality, 0-100")
	flag.BoolVar(&flgLossless, "lossless", false, "lossless encode")
	flag.IntVar(&flgSpeed, "speed", 7, "AV1 encoder speed, 0-9")
	flag.StringVar(&flgPreset, "preset", "fast", "x265 encoder preset")
	flag.StringVar(&flgResize, "resize", "", "resize to WxH before encoding")
	flag.Parse()
	if flag.NArg() != 1 {
		usage()
		os.Exit(1)
	}
	inPath := flag.Arg(0)
	if flgOut == "" {
		ext := ".avif"
		if flgFormat == "heif" {
			ext = ".heic"
		}
		flgOut = strings.TrimSuffix(inPath, filepath.Ext(inPath)) + ext
	}

	in, err := os.Open(inPath)
	must(err)
	img, kind, err := image.Decode(in)
	must(err)
	must(in.Close())
	logf("%s: %s %dx%d\n", inPath, kind, img.Bounds().Dx(), img.Bounds().Dy())

	if flgResize != "" {
		w, h := parseResize(flgResize)
		img = resize(img, w, h)
		logf("resized to %dx%d\n", w, h)
	}

	opts := &heif.Options{
		Format:   outFormat(),
		Lossless: flgLossless,
		Quality:  flgQuality,
		Speed:    flgSpeed,
		Preset:   flgPreset,
	}
	out, err := os.Create(flgOut)
	must(err)
	must(heif.Encode(out, img, opts))
	must(out.Close())

	st, err := os.Stat(flgOut)
	must(err)
	logf("%s: %s %s\n", flgOut, opts.Format, humanize.Bytes(uint64(st.Size())))
}
