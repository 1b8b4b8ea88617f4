package web

import (
	"bytes"
	"errors"
	"html/template"
	"io"
	"math"
	"strconv"

	"github.com/sweeney/cabin-monitor/internal/device"
)

// MaxDocumentSize bounds every rendered status page.
const MaxDocumentSize = 2048

// Temperatures beyond this magnitude are shown at the range edge.
const maxShownTemperature = 9999.99

// ErrDocumentTooLarge means the page would exceed MaxDocumentSize.
var ErrDocumentTooLarge = errors.New("status document exceeds size bound")

var pageTmpl = template.Must(template.New("page").Parse(pageHTML))

const pageHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta http-equiv="refresh" content="1">
<title>Monitor de Cabine de Carga</title>
</head>
<body>
<h1>Monitor de Cabine de Carga</h1>
<div>Temperatura: {{.Temperature}} &deg;C</div>
<div>
<h2>Sistema de Alarme</h2>
<div>Estado: {{.Alarm}}</div>
<a href="/alarm_on"><button>Ligar</button></a>
<a href="/alarm_off"><button>Desligar</button></a>
</div>
<div>
<h2>Ventilador</h2>
<div>Estado: {{.Fan}}</div>
<a href="/fan_on"><button>Ligar</button></a>
<a href="/fan_off"><button>Desligar</button></a>
</div>
<div>
<h2>Botões</h2>
<div>Botão A: {{.ButtonA}}</div>
<div>Botão B: {{.ButtonB}}</div>
</div>
<p><a href="/index.json">JSON</a></p>
</body>
</html>
`

type pageData struct {
	Temperature string
	Alarm       string
	Fan         string
	ButtonA     string
	ButtonB     string
}

// FormatTemperature renders t with two decimals. Non-finite readings show
// as "--" and finite ones are clamped so the width stays fixed.
func FormatTemperature(t float64) string {
	if math.IsNaN(t) || math.IsInf(t, 0) {
		return "--"
	}
	t = math.Max(-maxShownTemperature, math.Min(maxShownTemperature, t))
	return strconv.FormatFloat(t, 'f', 2, 64)
}

// limitWriter fails instead of writing past n bytes.
type limitWriter struct {
	w io.Writer
	n int
}

func (l *limitWriter) Write(p []byte) (int, error) {
	if len(p) > l.n {
		return 0, ErrDocumentTooLarge
	}
	n, err := l.w.Write(p)
	l.n -= n
	return n, err
}

// Render writes the status page for s to w.
func Render(w io.Writer, s device.Snapshot) error {
	doc, err := RenderDocument(s)
	if err != nil {
		return err
	}
	_, err = w.Write(doc)
	return err
}

// RenderDocument returns the status page for s. It never returns more than
// MaxDocumentSize bytes.
func RenderDocument(s device.Snapshot) ([]byte, error) {
	data := pageData{
		Temperature: FormatTemperature(s.Temperature),
		Alarm:       device.OnOffLabel(s.AlarmEnabled),
		Fan:         device.OnOffLabel(s.FanEnabled),
		ButtonA:     device.ButtonLabel(s.ButtonA),
		ButtonB:     device.ButtonLabel(s.ButtonB),
	}
	var buf bytes.Buffer
	buf.Grow(MaxDocumentSize)
	if err := pageTmpl.Execute(&limitWriter{w: &buf, n: MaxDocumentSize}, data); err != nil {
		if errors.Is(err, ErrDocumentTooLarge) {
			return nil, ErrDocumentTooLarge
		}
		return nil, err
	}
	return buf.Bytes(), nil
}
