// cmd/client/main.go
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/opd-ai/go-orbiter/pkg/config"
	"github.com/opd-ai/go-orbiter/pkg/event"
	"github.com/opd-ai/go-orbiter/pkg/network"
	"github.com/opd-ai/go-orbiter/pkg/render"
)

func main() {
	configPath := flag.String("config", "config.json", "Path to configuration file")
	serverAddr := flag.String("server", "", "Server address (overrides config)")
	pilotName := flag.String("name", "Pilot", "Pilot name")
	width := flag.Int("width", 100, "Terminal view width in characters")
	height := flag.Int("height", 36, "Terminal view height in characters")
	scale := flag.Float64("scale", 4.0, "World units per character cell")
	quiet := flag.Bool("quiet", false, "Disable rendering, print nothing")
	flag.Parse()

	if *serverAddr == "" {
		simConfig := config.DefaultConfig()
		if _, err := os.Stat(*configPath); err == nil {
			if loaded, err := config.LoadConfig(*configPath); err == nil {
				simConfig = loaded
			}
		}
		*serverAddr = simConfig.NetworkConfig.ServerAddress
	}

	eventBus := event.NewEventBus()
	client := network.NewSimulationClient(eventBus)

	log.Printf("Connecting to %s", *serverAddr)
	if err := client.Connect(*serverAddr, *pilotName); err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer client.Disconnect()

	var renderer render.Renderer
	if *quiet {
		renderer = render.NewNullRenderer()
	} else {
		renderer = render.NewTerminalRenderer(*width, *height, *scale)
	}

	done := make(chan struct{})
	go renderLoop(client, renderer, done)
	go inputLoop(client, done)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigChan:
	case <-done:
	}
	log.Printf("Disconnecting")
}

// renderLoop draws every snapshot the server ships.
func renderLoop(client *network.SimulationClient, renderer render.Renderer, done chan struct{}) {
	for {
		select {
		case <-done:
			return
		case state, ok := <-client.States():
			if !ok {
				return
			}
			renderer.Render(state)
		}
	}
}

// inputLoop reads line commands from stdin and translates them into
// flight input and control messages.
//
// Commands:
//
//	rotate <radians>   rotate the thrust vector
//	thrust <0..1>      set thrust magnitude
//	cut                zero thrust
//	refuel <amount>    top up the tank
//	recover            clear a crash
//	reset              restore the starting scene
//	speed <multiplier> scale simulated time
//	quit               exit
func inputLoop(client *network.SimulationClient, done chan struct{}) {
	defer close(done)

	scanner := bufio.NewScanner(os.Stdin)
	thrust := 0.0 // last commanded setting, so rotating does not cut the burn
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		var err error
		switch fields[0] {
		case "rotate":
			if v, ok := parseArg(fields); ok {
				err = client.SendInput(v, thrust)
			}
		case "thrust":
			if v, ok := parseArg(fields); ok {
				thrust = v
				err = client.SendInput(0, thrust)
			}
		case "cut":
			thrust = 0
			err = client.SendInput(0, 0)
		case "refuel":
			if v, ok := parseArg(fields); ok {
				err = client.Refuel(v)
			}
		case "recover":
			err = client.RecoverFromCrash()
		case "reset":
			err = client.ResetSimulation()
		case "speed":
			if v, ok := parseArg(fields); ok {
				err = client.SetSpeedMultiplier(v)
			}
		case "quit", "exit":
			return
		default:
			fmt.Printf("unknown command: %s\n", fields[0])
		}

		if err != nil {
			fmt.Printf("command failed: %v\n", err)
		}
	}
}

func parseArg(fields []string) (float64, bool) {
	if len(fields) < 2 {
		fmt.Printf("%s needs a numeric argument\n", fields[0])
		return 0, false
	}
	v, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		fmt.Printf("bad argument %q: %v\n", fields[1], err)
		return 0, false
	}
	return v, true
}
