package merits

import (
	"bytes"
	"fmt"
	"time"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	log "github.com/sirupsen/logrus"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gomono"

	"meritbot/bot/common"
	"meritbot/domain/entities"
)

// cardColumn defines one column of the leaderboard card
type cardColumn struct {
	Header    string
	XPosition int
	ColorRGB  [3]float64
}

// CardGenerator renders leaderboard standings as a PNG card
type CardGenerator struct {
	width     int
	padding   int
	rowHeight int
}

// NewCardGenerator creates a card generator with the default style
func NewCardGenerator() *CardGenerator {
	return &CardGenerator{
		width:     320,
		padding:   15,
		rowHeight: 26,
	}
}

// Generate renders the standings table. Names come pre-resolved so the
// renderer never touches the network.
func (g *CardGenerator) Generate(title string, standings []entities.Standing, names map[int64]string) ([]byte, error) {
	start := time.Now()
	defer func() {
		log.WithField("duration_ms", time.Since(start).Milliseconds()).
			WithField("row_count", len(standings)).
			Debug("Leaderboard card generation completed")
	}()

	columns := []cardColumn{
		{Header: "#", XPosition: g.padding, ColorRGB: [3]float64{0.85, 0.85, 0.9}},
		{Header: "Moderator", XPosition: g.padding + 30, ColorRGB: [3]float64{1.0, 1.0, 1.0}},
		{Header: "Merit", XPosition: g.padding + 220, ColorRGB: [3]float64{0.85, 1.0, 0.85}},
	}

	// Title band + header + rows + bottom padding
	height := 30 + 25 + 30 + len(standings)*g.rowHeight + 15
	if height < 180 {
		height = 180
	}

	dc := gg.NewContext(g.width, height)
	dc.SetFillRule(gg.FillRuleWinding)

	// Gradient background
	for i := 0; i < height; i++ {
		t := float64(i) / float64(height)
		dc.SetRGB(0.02+t*0.03, 0.02+t*0.05, 0.05+t*0.1)
		dc.DrawLine(0, float64(i), float64(g.width), float64(i))
		dc.Stroke()
	}

	titleFace, err := loadFont(gobold.TTF, 14)
	if err != nil {
		return nil, fmt.Errorf("failed to load title font: %w", err)
	}
	dc.SetFontFace(titleFace)
	dc.SetRGB(1.0, 0.84, 0)
	drawSharpText(dc, title, float64(g.padding), 22)

	face, err := loadFont(gomono.TTF, 11)
	if err != nil {
		return nil, fmt.Errorf("failed to load font: %w", err)
	}
	dc.SetFontFace(face)

	y := float64(55)

	// Header band
	dc.SetRGBA(0.3, 0.3, 0.4, 0.4)
	dc.DrawRectangle(0, y-15, float64(g.width), 20)
	dc.Fill()

	dc.SetRGB(1.0, 1.0, 1.0)
	for _, col := range columns {
		drawSharpText(dc, col.Header, float64(col.XPosition), y)
	}

	dc.SetRGBA(0.6, 0.6, 0.7, 0.7)
	dc.SetLineWidth(1)
	dc.DrawLine(0, y+8, float64(g.width), y+8)
	dc.Stroke()

	y += 30
	for i, standing := range standings {
		// Medal tint for the podium
		if i < 3 {
			var red, green, blue float64
			switch i {
			case 0:
				red, green, blue = 1, 0.84, 0
			case 1:
				red, green, blue = 0.75, 0.75, 0.75
			case 2:
				red, green, blue = 0.8, 0.5, 0.2
			}
			dc.SetRGBA(red, green, blue, 0.08)
			dc.DrawRectangle(0, y-15, float64(g.width), float64(g.rowHeight))
			dc.Fill()

			dc.SetRGB(red, green, blue)
			dc.DrawCircle(float64(g.padding+3), y-4, 5)
			dc.Fill()

			dc.SetRGB(0, 0, 0)
			rankFace, _ := loadFont(gobold.TTF, 9)
			dc.SetFontFace(rankFace)
			dc.DrawStringAnchored(fmt.Sprintf("%d", standing.Rank), float64(g.padding+3), y-5, 0.5, 0.4)
			dc.SetFontFace(face)
		} else {
			dc.SetRGB(columns[0].ColorRGB[0], columns[0].ColorRGB[1], columns[0].ColorRGB[2])
			drawSharpText(dc, fmt.Sprintf("%d", standing.Rank), float64(columns[0].XPosition), y)
		}

		name := names[standing.UserID]
		if name == "" {
			name = fmt.Sprintf("User %d", standing.UserID)
		}
		if len(name) > 18 {
			name = name[:17] + "…"
		}

		dc.SetRGB(columns[1].ColorRGB[0], columns[1].ColorRGB[1], columns[1].ColorRGB[2])
		drawSharpText(dc, name, float64(columns[1].XPosition), y)

		dc.SetRGB(columns[2].ColorRGB[0], columns[2].ColorRGB[1], columns[2].ColorRGB[2])
		drawSharpText(dc, common.FormatPoints(standing.Points), float64(columns[2].XPosition), y)

		y += float64(g.rowHeight)
	}

	if len(standings) == 0 {
		dc.SetRGB(0.7, 0.7, 0.75)
		drawSharpText(dc, "No merit earned yet", float64(g.padding), y)
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("failed to encode leaderboard card: %w", err)
	}

	return buf.Bytes(), nil
}

// drawSharpText draws text with a subtle shadow for perceived sharpness
func drawSharpText(dc *gg.Context, text string, x, y float64) {
	dc.Push()
	dc.SetRGBA(0, 0, 0, 0.5)
	dc.DrawString(text, x+0.5, y+0.5)
	dc.Pop()

	dc.DrawString(text, x, y)
}

// loadFont loads a font face from embedded TTF data
func loadFont(fontData []byte, size float64) (font.Face, error) {
	f, err := truetype.Parse(fontData)
	if err != nil {
		return nil, err
	}
	face := truetype.NewFace(f, &truetype.Options{
		Size:       size,
		DPI:        72,
		Hinting:    font.HintingFull,
		SubPixelsX: 4,
		SubPixelsY: 4,
	})
	return face, nil
}
