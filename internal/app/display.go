package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"log"
	"math"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/devices/v3/ssd1306/image1bit"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/manhunt_client/internal/config"
	"github.com/relabs-tech/manhunt_client/internal/game"
	"github.com/relabs-tech/manhunt_client/internal/tracker"
)

const (
	screenW = 128
	screenH = 64

	// needle dial on the left half of the screen
	dialCX     = 31
	dialCY     = 32
	dialRadius = 29
)

// screen is the part of *ssd1306.Dev the renderer needs.
type screen interface {
	Bounds() image.Rectangle
	Draw(r image.Rectangle, src image.Image, sp image.Point) error
}

// DisplayData holds the latest snapshot for display
type DisplayData struct {
	mu   sync.RWMutex
	snap tracker.Snapshot
	have bool
}

func (d *DisplayData) set(s tracker.Snapshot) {
	d.mu.Lock()
	d.snap = s
	d.have = true
	d.mu.Unlock()
}

func (d *DisplayData) get() (tracker.Snapshot, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.snap, d.have
}

// RunDisplay draws the needle and the target distance on an SSD1306 OLED,
// fed from the client's snapshot topic.
func RunDisplay() error {
	cfg := config.Get()
	if cfg == nil {
		return errors.New("display: config not initialised")
	}

	// Initialize periph
	if _, err := host.Init(); err != nil {
		return fmt.Errorf("failed to initialize periph: %w", err)
	}

	// Open I2C bus ("" is the first available)
	bus, err := i2creg.Open(cfg.DisplayI2CBus)
	if err != nil {
		return fmt.Errorf("failed to open I2C bus: %w", err)
	}
	defer bus.Close()

	dev, err := ssd1306.NewI2C(bus, &ssd1306.DefaultOpts)
	if err != nil {
		return fmt.Errorf("failed to initialize display: %w", err)
	}
	defer dev.Halt()
	log.Println("display: initialized")

	if err := showSplash(dev); err != nil {
		log.Printf("display: error showing splash: %v", err)
	}

	data := &DisplayData{}

	client, err := connectMQTT(cfg.MQTTBroker, cfg.MQTTClientIDDisplay, "display")
	if err != nil {
		return err
	}
	defer client.Disconnect(250)

	token := client.Subscribe(cfg.TopicSnapshot, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var s tracker.Snapshot
		if err := json.Unmarshal(msg.Payload(), &s); err != nil {
			log.Printf("display: snapshot unmarshal error: %v", err)
			return
		}
		data.set(s)
	})
	token.Wait()
	if token.Error() != nil {
		return token.Error()
	}
	log.Printf("display: subscribed to %s", cfg.TopicSnapshot)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	ticker := time.NewTicker(time.Duration(cfg.DisplayUpdateInterval) * time.Millisecond)
	defer ticker.Stop()

	log.Println("display: starting update loop")
	for {
		select {
		case <-sigCh:
			log.Println("display: shutting down")
			return nil
		case <-ticker.C:
			snap, have := data.get()
			if err := updateDisplay(dev, snap, have); err != nil {
				log.Printf("display: error updating display: %v", err)
			}
		}
	}
}

func updateDisplay(dev screen, snap tracker.Snapshot, have bool) error {
	return dev.Draw(dev.Bounds(), renderSnapshot(snap, have), image.Point{})
}

func newFrame() (*image1bit.VerticalLSB, *font.Drawer) {
	img := image1bit.NewVerticalLSB(image.Rect(0, 0, screenW, screenH))
	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{image1bit.On},
		Face: basicfont.Face7x13,
	}
	return img, drawer
}

// renderSnapshot draws the dial on the left and text on the right.
func renderSnapshot(snap tracker.Snapshot, have bool) *image1bit.VerticalLSB {
	img, drawer := newFrame()

	if !have {
		drawer.Dot = fixed.P(0, 26)
		drawer.DrawBytes([]byte("Manhunt"))
		drawer.Dot = fixed.P(0, 39)
		drawer.DrawBytes([]byte("Waiting..."))
		return img
	}

	drawDial(img, snap.Needle.Rotation.Accumulated)

	x := 66
	line := func(y int, s string) {
		drawer.Dot = fixed.P(x, y)
		drawer.DrawBytes([]byte(truncate(s, 8)))
	}

	switch snap.Role {
	case game.Seeker:
		target := snap.Needle.Target
		if target == "" {
			target = "No target"
		}
		line(13, target)
		line(26, snap.Needle.DistanceText)
	default:
		line(13, "Closest")
		line(26, snap.Needle.DistanceText)
		if snap.Hider != nil && snap.Hider.ClosestInDanger {
			line(39, "DANGER")
		}
	}
	line(52, "C:"+snap.Compass.State.String())
	return img
}

// drawDial draws a ring and a needle turned deg clockwise from the top.
func drawDial(img *image1bit.VerticalLSB, deg float64) {
	for a := 0; a < 360; a += 4 {
		r := float64(a) * math.Pi / 180
		x := dialCX + int(math.Round(dialRadius*math.Sin(r)))
		y := dialCY - int(math.Round(dialRadius*math.Cos(r)))
		img.SetBit(x, y, image1bit.On)
	}

	tipX, tipY := needleTip(deg, dialRadius-4)
	drawLine(img, dialCX, dialCY, tipX, tipY)

	// short arrowhead strokes
	leftX, leftY := needleTip(deg-150, 6)
	rightX, rightY := needleTip(deg+150, 6)
	drawLine(img, tipX, tipY, tipX+leftX-dialCX, tipY+leftY-dialCY)
	drawLine(img, tipX, tipY, tipX+rightX-dialCX, tipY+rightY-dialCY)
}

// needleTip returns the point length pixels from the dial centre at deg
// clockwise from the top of the screen.
func needleTip(deg float64, length int) (int, int) {
	r := deg * math.Pi / 180
	x := dialCX + int(math.Round(float64(length)*math.Sin(r)))
	y := dialCY - int(math.Round(float64(length)*math.Cos(r)))
	return x, y
}

// drawLine is Bresenham's line algorithm.
func drawLine(img *image1bit.VerticalLSB, x0, y0, x1, y1 int) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy
	for {
		img.SetBit(x0, y0, image1bit.On)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func showSplash(dev screen) error {
	img, drawer := newFrame()

	drawer.Dot = fixed.P(30, 26)
	drawer.DrawBytes([]byte("Manhunt"))

	drawer.Dot = fixed.P(5, 43)
	drawer.DrawBytes([]byte("Looking for"))

	drawer.Dot = fixed.P(25, 56)
	drawer.DrawBytes([]byte("the lobby"))

	return dev.Draw(dev.Bounds(), img, image.Point{})
}
