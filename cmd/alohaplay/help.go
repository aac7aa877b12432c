package main

import (
	"fmt"

	"github.com/fatih/color"
)

const helpString = `Decode and play a media file or stream

Usage: alohaplay [OPTION]... URI

Source:
      --backend=NAME     Decode backend: ffmpeg, mpeg, beep or testsrc
                         (default: chosen by URI)
      --probe            Print the container's streams and exit

Video:
  -x, --width=NUM        Scale frames to this width (default: source width)
  -y, --height=NUM       Scale frames to this height (default: source height)
      --prebuffer=NUM    Frames buffered before playback starts (default: 30)
      --tick=DURATION    Render loop period (default: 10ms)

Audio:
      --audio            Play audio; --audio=false for video only
                         (default: true)
      --silent           Consume audio in real time without a sound card

Miscellaneous:
  -c, --config=FILE      Read settings from FILE (TOML, YAML or JSON)
      --status=ADDR      Serve playback status on ADDR, e.g. :8080
      --log-level=LEVEL  error, warn, info, debug or trace (default: info)
  -h, --help             Prints this help message and exits
  -v, --version          Prints version information and exits

Settings may also be given as ALOHAPLAY_<SECTION>_<KEY> environment
variables, e.g. ALOHAPLAY_VIDEO_QUEUE_CAPACITY=200.`

// Help information is printed and program exits
func help() {
	r := color.New(color.FgRed)
	y := color.New(color.FgYellow)
	b := color.New(color.FgCyan)

	//        _       _                  _
	//   __ _| | ___ | |__   __ _   _ __ | | __ _ _   _
	//  / _` | |/ _ \| '_ \ / _` | | '_ \| |/ _` | | | |
	// | (_| | | (_) | | | | (_| | | |_) | | (_| | |_| |
	//  \__,_|_|\___/|_| |_|\__,_| | .__/|_|\__,_|\__, |
	//                             |_|            |___/

	// Line 1
	r.Printf("       ")
	y.Printf("_       ")
	r.Printf("_          ")
	b.Println("       _")

	// Line 2
	r.Printf("  __ _")
	y.Printf("| | ___ ")
	r.Printf("| |__   __ _  ")
	b.Println(" _ __ | | __ _ _   _")

	// Line 3
	r.Printf(" / _` ")
	y.Printf("| |/ _ \\")
	r.Printf("| '_ \\ / _` | ")
	b.Println("| '_ \\| |/ _` | | | |")

	// Line 4
	r.Printf("| (_| ")
	y.Printf("| | (_) ")
	r.Printf("| | | | (_| | ")
	b.Println("| |_) | | (_| | |_| |")

	// Line 5
	r.Printf(" \\__,_")
	y.Printf("|_|\\___/")
	r.Printf("|_| |_|\\__,_| ")
	b.Println("| .__/|_|\\__,_|\\__, |")

	// Line 6
	r.Printf("                            ")
	b.Println("|_|            |___/")

	fmt.Println()
	fmt.Println(helpString)
}

// version displays information and exits successfully (GNU convention)
func version() {
	fmt.Println("alohaplay", GitTag, GitRevisionId)
	fmt.Println("Copyright 2019 Lanikai Labs LLC. All rights reserved.")
}
