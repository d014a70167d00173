package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math"
	"net/http"
	"time"

	"github.com/fasthttp/websocket"
	"github.com/fatih/color"
)

// Simplified wire types for the script
type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type frameData struct {
	Landmarks       map[string][2]float64 `json:"landmarks"`
	CalibrationMode string                `json:"calibration_mode,omitempty"`
}

type frameReply struct {
	Count      int  `json:"count"`
	HalfReps   int  `json:"half_reps"`
	Percentage int  `json:"percentage"`
	Calibrated bool `json:"calibrated"`
	Angle      int  `json:"angle"`
}

func main() {
	url := flag.String("url", "ws://localhost:5000/api/ws", "workout websocket endpoint")
	token := flag.String("token", "", "bearer token when the server requires one")
	reps := flag.Int("reps", 5, "number of curls to simulate")
	interval := flag.Duration("interval", 20*time.Millisecond, "delay between frames")
	flag.Parse()

	header := http.Header{}
	if *token != "" {
		header.Set("Authorization", "Bearer "+*token)
	}

	conn, _, err := websocket.DefaultDialer.Dial(*url, header)
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer conn.Close()

	color.Cyan("=== Bicep Curl Simulation Client ===")

	call(conn, "set_arm_side", map[string]string{"arm_side": "left"})

	color.Yellow("\n1. Calibrating MIN (arm curled, ~30 deg)")
	call(conn, "start_calibration_min", nil)
	for i := 0; i < 10; i++ {
		frame(conn, 30+float64(i%3), "min", *interval)
	}
	call(conn, "complete_calibration_min", nil)

	color.Yellow("\n2. Calibrating MAX (arm extended, ~150 deg)")
	call(conn, "start_calibration_max", nil)
	for i := 0; i < 10; i++ {
		frame(conn, 150-float64(i%3), "max", *interval)
	}
	call(conn, "complete_calibration_max", nil)

	color.Yellow("\n3. Curling x%d", *reps)
	const stepsPerRep = 40
	var last frameReply
	for i := 0; i <= *reps*stepsPerRep; i++ {
		// Starts extended, curls to fully flexed and back once per rep.
		phase := float64(i) / stepsPerRep * 2 * math.Pi
		angle := 90 + 60*math.Cos(phase)
		last = frame(conn, angle, "", *interval)
		if i%(stepsPerRep/4) == 0 {
			fmt.Printf("  angle=%3d pct=%3d count=%d (half=%d)\n", last.Angle, last.Percentage, last.Count, last.HalfReps)
		}
	}

	if last.Count == *reps {
		color.Green("\nCounted %d/%d reps", last.Count, *reps)
	} else {
		color.Red("\nCounted %d/%d reps", last.Count, *reps)
	}
}

func call(conn *websocket.Conn, event string, data interface{}) json.RawMessage {
	msg := envelope{Event: event}
	if data != nil {
		raw, _ := json.Marshal(data)
		msg.Data = raw
	}
	if err := conn.WriteJSON(msg); err != nil {
		log.Fatalf("Failed to send %s: %v", event, err)
	}

	var reply envelope
	if err := conn.ReadJSON(&reply); err != nil {
		log.Fatalf("Failed to read reply to %s: %v", event, err)
	}
	switch reply.Event {
	case "error", "calibration_failed":
		color.Red("%s -> %s %s", event, reply.Event, string(reply.Data))
	case "frame_processed":
	default:
		color.Green("%s -> %s %s", event, reply.Event, string(reply.Data))
	}
	return reply.Data
}

// frame sends a left arm whose elbow bends to the given angle.
func frame(conn *websocket.Conn, degrees float64, mode string, interval time.Duration) frameReply {
	rad := degrees * math.Pi / 180
	data := frameData{
		Landmarks: map[string][2]float64{
			"11": {320, 120},
			"13": {320, 240},
			"15": {320 + 120*math.Sin(rad), 240 - 120*math.Cos(rad)},
		},
		CalibrationMode: mode,
	}

	var res frameReply
	if err := json.Unmarshal(call(conn, "process_frame", data), &res); err != nil {
		log.Printf("Bad frame reply: %v", err)
	}
	time.Sleep(interval)
	return res
}
