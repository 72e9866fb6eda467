package main

import (
	"context"
	"flag"
	"log"
	"os"
	"reflect"

	"github.com/robotalks/plotter.go/pkg/telemetry"
)

var (
	mqttURL = "mqtt://localhost:1883/plotter/"
	topic   = "#"
)

func init() {
	if val := os.Getenv("PLOTTER_MQTT_URL"); val != "" {
		mqttURL = val
	}
	flag.StringVar(&mqttURL, "mqtt", mqttURL, "MQTT broker URL.")
	flag.StringVar(&topic, "topic", topic, "Topic pattern under the prefix, e.g. +/fix.")
}

func main() {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds)

	q, err := telemetry.NewQueueFromURL(mqttURL)
	if err != nil {
		log.Fatalln(err)
	}

	q.Sub(topic, func(topic string, payload []byte) {
		env, err := telemetry.DecodeEnvelope(payload)
		if err != nil {
			log.Printf("%s: bad message: %v", topic, err)
			return
		}
		msg, err := env.Decode()
		if err != nil {
			log.Printf("%s: decode error: (type_id=%x) %v", topic, env.TypeId, err)
			return
		}
		log.Printf("%s: [%s] %s", topic, reflect.Indirect(reflect.ValueOf(msg)).Type().Name(), msg.String())
	})
	q.Run(context.Background())
}
