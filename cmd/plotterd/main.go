package main

//go-build: CGO_ENABLED=0

import (
	"context"
	"flag"
	"io"
	"os"

	"github.com/golang/glog"

	"github.com/robotalks/plotter.go/pkg/cli/sh"
	"github.com/robotalks/plotter.go/pkg/device"
	fx "github.com/robotalks/plotter.go/pkg/framework"
)

var console bool

func init() {
	device.SetupFlags()
	sh.SetupFlags()
	flag.BoolVar(&console, "console", console, "Run the interactive console.")
}

func main() {
	flag.Parse()

	var out io.Writer = os.Stdout
	if console {
		out = os.Stderr
	}
	dev, err := device.NewConfig().NewDevice(out)
	if err != nil {
		glog.Fatal(err)
	}
	defer dev.Close()

	ctx, cancel := context.WithCancel(context.Background())
	runner := dev.Start(fx.NewRunnerWith(ctx).HandleSignals())

	if console && sh.Enabled(flag.Args()) {
		shell := sh.New(&sh.Plotter{
			Chart:  dev.Chart,
			State:  dev.State,
			Routes: dev.Routes,
			Fixes:  dev.Reader,
		})
		if err := shell.Run(flag.Args()...); err != nil {
			glog.Error(err)
		}
		cancel()
	}

	if err := runner.Wait(); err != nil {
		glog.Fatal(err)
	}
	glog.Flush()
}
