package goavc_test

import (
	"errors"
	"fmt"
	"image/png"
	"io"
	"log"
	"os"

	"github.com/thesyncim/goavc"
	"github.com/thesyncim/goavc/container/avc"
)

func ExampleNewDecoder() {
	f, err := os.Open("stream.h264")
	if err != nil {
		log.Fatal(err)
	}
	defer f.Close()

	dec, err := goavc.NewDecoder()
	if err != nil {
		log.Fatal(err)
	}

	r := avc.NewReader(f)
	for {
		au, err := r.ReadAccessUnit()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			log.Fatal(err)
		}

		frames, err := dec.Decode(au)
		if err != nil {
			// Damaged units are concealed; frames still come.
			log.Printf("decode: %v", err)
		}
		for _, frame := range frames {
			fmt.Printf("frame poc=%d %dx%d type=%s\n",
				frame.POC, frame.Width, frame.Height, frame.Type)
		}
	}

	// Drain the pictures still held for reordering.
	for _, frame := range dec.Flush() {
		fmt.Printf("frame poc=%d (flushed)\n", frame.POC)
	}
}

func ExampleDecoder_SetExtraData() {
	dec, err := goavc.NewDecoder()
	if err != nil {
		log.Fatal(err)
	}

	// The avcC record from an MP4 sample entry carries the parameter
	// sets and switches Decode to length-prefixed framing.
	var record []byte
	if err := dec.SetExtraData(record); err != nil {
		log.Fatal(err)
	}

	// Samples out of the container decode as stored.
	var sample []byte
	frames, err := dec.Decode(sample)
	if err != nil {
		log.Printf("decode: %v", err)
	}
	fmt.Println(len(frames))
}

func ExampleFrame_YCbCr() {
	dec, err := goavc.NewDecoder()
	if err != nil {
		log.Fatal(err)
	}

	var accessUnit []byte
	frames, _ := dec.Decode(accessUnit)
	for _, frame := range frames {
		out, err := os.Create("frame.png")
		if err != nil {
			log.Fatal(err)
		}
		// The view shares the frame's planes; nothing is copied.
		if err := png.Encode(out, frame.YCbCr()); err != nil {
			log.Fatal(err)
		}
		out.Close()
	}
}

func ExamplePictureType() {
	fmt.Println(goavc.PictureTypeI, goavc.PictureTypeP, goavc.PictureTypeB)
	// Output: I P B
}
