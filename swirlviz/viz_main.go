// Command swirlviz renders a swirling particle simulation in a window.
//
// Usage
//
//	swirlviz [-config file.toml] [-fullscreen] [-seed n] [-debug]
//
// Without -config it runs the built-in defaults: a thousand particles
// on the Lorenz model, windowed at 1280x720.
//
// Config file
//
// The config file is written in TOML. Every field of Config can be set;
// fields not present keep their defaults. See the Config type for the
// full list of parameters and units.
//
// Interactive mode
//
// The simulation can be paused and resumed with space. While paused,
// pressing period advances a single step. F toggles the blur filter,
// Enter saves a screenshot, Tab captures or frees the mouse for look
// control, and the scroll wheel zooms. Esc or closing the window quits.
package main

import (
	"flag"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/gekko3d/swirl"
	"github.com/gekko3d/swirl/swirlviz/viz/app"
)

const usage = `Usage: swirlviz [flags]

Runs an interactive particle swirl in a window. Flags:
`

func init() {
	// GLFW event handling must run on the main OS thread.
	runtime.LockOSThread()
}

func main() {
	configPath := flag.String("config", "", "path to a TOML config file")
	fullscreen := flag.Bool("fullscreen", false, "run fullscreen on the primary monitor")
	seed := flag.Int64("seed", 0, "override the config random seed")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	var conf *Config
	if *configPath == "" {
		c := *DefaultConf
		conf = &c
	} else {
		var err error
		conf, err = ParseConfig(*configPath)
		if err != nil {
			Fatal(err)
		}
	}
	if *seed != 0 {
		conf.Seed = *seed
	}
	if conf.Seed == 0 {
		conf.Seed = time.Now().UnixNano()
	}
	if err := conf.Validate(); err != nil {
		Fatal(err)
	}

	log := swirl.NewDefaultLogger("swirlviz", *debug)

	sys, err := swirl.NewSystem(swirl.SystemConfig{
		Count:       conf.Particles,
		Model:       conf.ModelFactory(),
		TrailCap:    conf.TrailCap,
		TrailEvery:  conf.TrailEvery,
		IgniteProb:  conf.IgniteProb,
		StartExtent: conf.Lims,
		Seed:        conf.Seed,
		Logger:      log,
	})
	if err != nil {
		Fatal(err)
	}

	if err := glfw.Init(); err != nil {
		Fatal(err)
	}
	defer glfw.Terminate()

	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	glfw.WindowHint(glfw.Resizable, glfw.True)

	var monitor *glfw.Monitor
	width, height := conf.Width, conf.Height
	if *fullscreen {
		monitor = glfw.GetPrimaryMonitor()
		mode := monitor.GetVideoMode()
		width, height = mode.Width, mode.Height
	}
	window, err := glfw.CreateWindow(width, height, "Swirl", monitor, nil)
	if err != nil {
		Fatal(err)
	}
	defer window.Destroy()

	application := app.NewApp(window, sys, app.Options{
		Radius:      conf.Radius,
		MeshNx:      conf.MeshNx,
		MeshNz:      conf.MeshNz,
		ModelName:   conf.Model,
		Screenshots: conf.Screenshots,
		Log:         log,
	})
	if err := application.Init(); err != nil {
		Fatal(err)
	}
	defer application.Release()

	log.Infof("%d particles, model %s, seed %d", conf.Particles, conf.Model, conf.Seed)

	for !window.ShouldClose() {
		glfw.PollEvents()
		application.Frame()
	}
}

// Fatal prints an error on the standard output and exits with a non-zero status.
func Fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	os.Exit(1)
}
