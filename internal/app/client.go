// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/manhunt_client/internal/api"
	"github.com/relabs-tech/manhunt_client/internal/config"
	"github.com/relabs-tech/manhunt_client/internal/game"
	"github.com/relabs-tech/manhunt_client/internal/geo"
	"github.com/relabs-tech/manhunt_client/internal/gps"
	"github.com/relabs-tech/manhunt_client/internal/heading"
	"github.com/relabs-tech/manhunt_client/internal/metrics"
	"github.com/relabs-tech/manhunt_client/internal/sensors"
	"github.com/relabs-tech/manhunt_client/internal/tracker"
	"github.com/relabs-tech/manhunt_client/internal/web"
)

// RunClient joins the configured lobby and plays until interrupted or
// until the lobby ends the session.
func RunClient() error {
	cfg := config.Get()
	if cfg == nil {
		return errors.New("client: config not initialised")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	collector, err := metrics.New(nil)
	if err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}
	client := api.New(cfg.APIBaseURL, cfg.APITimeout(), api.WithObserver(collector))

	// MQTT is optional unless a source needs it.
	var mq mqtt.Client
	if cfg.MQTTBroker != "" {
		mq, err = connectMQTT(cfg.MQTTBroker, cfg.MQTTClientIDClient, "client")
		if err != nil {
			if cfg.GPSSource == "mqtt" || cfg.HeadingSource == "mqtt" {
				return err
			}
			log.Printf("client: %v; continuing without MQTT", err)
			mq = nil
		} else {
			defer mq.Disconnect(250)
		}
	}

	locator, closeLocator, err := openLocator(cfg, mq)
	if err != nil {
		return err
	}
	defer closeLocator()

	provider, bridge, err := openProvider(cfg, mq)
	if err != nil {
		return err
	}
	compass := heading.Open(ctx, provider, heading.WithObserver(collector))
	defer compass.Close()
	if bridge != nil {
		defer bridge.Shutdown()
	}
	log.Printf("client: compass %s, permission %s", compass.Capability(), compass.State())

	role, err := game.ParseRole(cfg.PlayerRole)
	if err != nil {
		return err
	}

	session, err := tracker.StartSession(ctx, client, cfg.LobbyID, cfg.LobbyName)
	if err != nil {
		return err
	}
	defer session.Leave(client, cfg.APITimeout())

	var srv *web.Server
	opts := []tracker.Option{
		tracker.WithMetrics(collector),
		tracker.WithSink(&consoleSink{out: os.Stdout, every: time.Duration(cfg.ConsoleLogInterval) * time.Millisecond}),
		tracker.WithSink(tracker.SinkFunc(func(s tracker.Snapshot) { srv.Publish(s) })),
	}
	if mq != nil && cfg.TopicSnapshot != "" {
		opts = append(opts, tracker.WithSink(&mqttSink{client: mq, topic: cfg.TopicSnapshot}))
	}

	tr := tracker.New(tracker.Config{
		Session:          session,
		PlayerName:       cfg.PlayerName,
		Role:             role,
		LocationInterval: cfg.LocationEvery(),
		PollInterval:     cfg.PollEvery(),
		Views: game.Views{
			Geo: geo.Calculator{ZeroIsMissing: cfg.GeoZeroIsMissing},
			Now: time.Now,
		},
	}, client, locator, compass, opts...)

	webOpts := []web.Option{web.WithMetrics(collector.Handler()), web.WithStaticDir(cfg.WebStaticDir)}
	if bridge != nil {
		webOpts = append(webOpts, web.WithBridge(bridge))
	}
	srv = web.New(tr, webOpts...)

	// The lobby assigns defaults on join; push ours before the first trade.
	if err := tr.SetRole(ctx, role); err != nil {
		log.Printf("client: %v", err)
	}
	if cfg.PlayerName != "" {
		if err := tr.SetName(ctx, cfg.PlayerName); err != nil {
			log.Printf("client: %v", err)
		}
	}

	go func() {
		addr := fmt.Sprintf(":%d", cfg.WebServerPort)
		if err := srv.ListenAndServe(ctx, addr); err != nil {
			log.Printf("web: server error: %v", err)
		}
	}()

	log.Printf("client: playing in lobby %s as %s", session.LobbyID, role)
	err = tr.Run(ctx)
	log.Println("client: shutting down")
	return err
}

// openLocator picks the position source named by GPS_SOURCE.
func openLocator(cfg *config.Config, mq mqtt.Client) (gps.Locator, func(), error) {
	switch cfg.GPSSource {
	case "serial":
		l, err := gps.OpenSerial(cfg.GPSSerialPort, cfg.GPSBaudRate)
		if err != nil {
			return nil, nil, err
		}
		return l, closer("gps serial", l), nil
	case "mqtt":
		l, err := gps.SubscribeMQTT(mq, cfg.TopicGPS)
		if err != nil {
			return nil, nil, err
		}
		return l, closer("gps mqtt", l), nil
	default:
		pos := geo.Coordinate{Latitude: cfg.StaticLatitude, Longitude: cfg.StaticLongitude}
		log.Printf("client: using static position %.6f,%.6f", pos.Latitude, pos.Longitude)
		return gps.StaticLocator{Position: pos}, func() {}, nil
	}
}

// openProvider picks the heading source named by HEADING_SOURCE. The
// bridge is returned separately so the web server can feed it.
func openProvider(cfg *config.Config, mq mqtt.Client) (heading.Provider, *heading.BridgeProvider, error) {
	switch cfg.HeadingSource {
	case "mock":
		p := heading.NewMockProvider(cfg.MockHeadingRate)
		p.Interval = cfg.HeadingEvery()
		return p, nil, nil
	case "mqtt":
		c, err := heading.ParseCapability(cfg.HeadingCapability)
		if err != nil {
			return nil, nil, err
		}
		return &heading.MQTTProvider{Client: mq, Topic: cfg.TopicHeading, Cap: c}, nil, nil
	case "bridge":
		b := heading.NewBridgeProvider()
		return b, b, nil
	case "imu":
		g, err := sensors.OpenGyro(cfg.IMUSPIDevice, cfg.IMUCSPin)
		if err != nil {
			return nil, nil, err
		}
		return sensors.NewGyroProvider(g, cfg.HeadingEvery()), nil, nil
	default:
		return heading.Unavailable{}, nil, nil
	}
}

func closer(what string, c io.Closer) func() {
	return func() {
		if err := c.Close(); err != nil {
			log.Printf("client: close %s: %v", what, err)
		}
	}
}
