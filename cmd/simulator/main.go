// Command simulator drives a running station server over the TCP wire
// protocol: it registers a few drivers, submits charging requests, watches
// the queue drain and ends the charges.
package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"go.uber.org/zap"
)

func main() {
	var (
		addr    = flag.String("addr", "localhost:5000", "server address")
		drivers = flag.Int("drivers", 3, "number of simulated drivers")
		wait    = flag.Duration("wait", 8*time.Second, "time to charge before ending")
	)
	flag.Parse()

	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}
	defer logger.Sync()

	modes := []string{"FAST", "TRICKLE"}

	for i := 0; i < *drivers; i++ {
		userID := fmt.Sprintf("driver-%02d", i+1)
		carID := fmt.Sprintf("CAR-%02d", i+1)
		mode := modes[i%len(modes)]

		client, err := Dial(*addr, logger)
		if err != nil {
			logger.Fatal("Failed to connect", zap.Error(err))
		}
		defer client.Close()

		if resp, err := client.Call("register", map[string]interface{}{
			"user_id":          userID,
			"password":         "sim-pass-123",
			"car_id":           carID,
			"battery_capacity": 60.0,
		}); err != nil {
			logger.Fatal("register failed", zap.Error(err))
		} else {
			logger.Info("register", zap.String("user_id", userID), zap.String("status", resp.Status))
		}

		if resp, err := client.Call("login", map[string]interface{}{
			"user_id":  userID,
			"password": "sim-pass-123",
		}); err != nil || resp.Status != "success" {
			logger.Fatal("login failed", zap.Any("resp", resp), zap.Error(err))
		}

		resp, err := client.Call("submit_charging_request", map[string]interface{}{
			"car_id":       carID,
			"request_mode": mode,
			"amount":       20.0 + float64(i)*5,
		})
		if err != nil {
			logger.Fatal("submit failed", zap.Error(err))
		}
		logger.Info("submitted",
			zap.String("car_id", carID),
			zap.String("mode", mode),
			zap.Any("data", resp.Data),
		)
	}

	logger.Info("Charging...", zap.Duration("wait", *wait))
	time.Sleep(*wait)

	admin, err := Dial(*addr, logger)
	if err != nil {
		logger.Fatal("Failed to connect", zap.Error(err))
	}
	defer admin.Close()

	for i := 0; i < *drivers; i++ {
		carID := fmt.Sprintf("CAR-%02d", i+1)
		resp, err := admin.Call("end_charging", map[string]interface{}{"car_id": carID})
		if err != nil {
			logger.Warn("end_charging failed", zap.String("car_id", carID), zap.Error(err))
			continue
		}
		logger.Info("bill", zap.String("car_id", carID), zap.Any("data", resp.Data))
	}

	if resp, err := admin.Call("get_all_piles", nil); err == nil {
		logger.Info("fleet", zap.Any("piles", resp.Data))
	}
	if resp, err := admin.Call("get_reports", map[string]interface{}{"time_range": "day"}); err == nil {
		logger.Info("report", zap.Any("data", resp.Data))
	}
}
