package main

import (
	"flag"
	"fmt"
	"math"
	"math/rand"
	"net/http"
	"os"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/0x0FACED/go-fortune-sweep/pkg/config"
	"github.com/0x0FACED/go-fortune-sweep/pkg/logger"
	"github.com/0x0FACED/go-fortune-sweep/pkg/render"
	"github.com/0x0FACED/go-fortune-sweep/pkg/voronoi"
	"github.com/0x0FACED/go-fortune-sweep/static"
)

type Station struct {
	X, Y float64
}

// Random stations on the integer grid of the canvas, without repeats.
func generateRandStations(rng *rand.Rand, n int, width, height int) []Station {
	if n > width*height {
		n = width * height
	}
	stations := make([]Station, 0, n)
	seen := make(map[Station]struct{}, n)
	for len(stations) < n {
		s := Station{
			X: float64(rng.Intn(width)),
			Y: float64(rng.Intn(height)),
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		stations = append(stations, s)
	}
	return stations
}

func generateFixStations(n int, width, height int) []Station {
	stations := make([]Station, 0, n)

	rows := int(math.Sqrt(float64(n)))
	cols := (n + rows - 1) / rows

	xStep := float64(width) / float64(cols)
	yStep := float64(height) / float64(rows)

	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			// the last row may be incomplete
			if len(stations) == n {
				break
			}
			x := xStep/2 + float64(j)*xStep
			y := yStep/2 + float64(i)*yStep
			stations = append(stations, Station{X: x, Y: y})
		}
	}

	return stations
}

func toPoints(stations []Station) []voronoi.Vertex {
	points := make([]voronoi.Vertex, len(stations))
	for i, s := range stations {
		points[i] = voronoi.Vertex{X: s.X, Y: s.Y}
	}
	return points
}

type app struct {
	cfg config.Config
	log *logger.ZapLogger
}

// params of one page or image request
type params struct {
	width    int
	height   int
	stations int
	random   bool
	seed     int64
}

func (p params) form() static.Form {
	return static.Form{Width: p.width, Height: p.height, Stations: p.stations, Random: p.random, Seed: p.seed}
}

func formInt(r *http.Request, key string, def int) (int, error) {
	v := r.FormValue(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func (a *app) parseParams(r *http.Request) (params, error) {
	d := a.cfg.Diagram
	p := params{random: d.Random, seed: d.Seed}
	if err := r.ParseForm(); err != nil {
		return p, err
	}

	var err error
	if p.width, err = formInt(r, "width", d.Width); err != nil {
		return p, err
	}
	if p.height, err = formInt(r, "height", d.Height); err != nil {
		return p, err
	}
	if p.stations, err = formInt(r, "stations", d.Stations); err != nil {
		return p, err
	}
	if v := r.FormValue("random"); v != "" {
		p.random = v == "true"
	}
	if v := r.FormValue("seed"); v != "" {
		if p.seed, err = strconv.ParseInt(v, 10, 64); err != nil {
			return p, fmt.Errorf("seed: %w", err)
		}
	}

	check := config.Config{Server: a.cfg.Server, Log: a.cfg.Log, Diagram: config.Diagram{
		Width: p.width, Height: p.height, Stations: p.stations,
	}}
	return p, check.Validate()
}

func (a *app) stations(p params) []Station {
	if !p.random {
		return generateFixStations(p.stations, p.width, p.height)
	}
	seed := p.seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return generateRandStations(rand.New(rand.NewSource(seed)), p.stations, p.width, p.height)
}

// requestLogger keeps the log of one computation for the page.
func (a *app) requestLogger() *logger.ZapLogger {
	opts := []logger.Option{logger.WithLevel(a.cfg.LogLevel())}
	if a.cfg.Log.Stderr {
		opts = append(opts, logger.WithOutput(os.Stderr))
	}
	return logger.New(opts...)
}

func (a *app) compute(p params, log *logger.ZapLogger) ([]voronoi.Vertex, *voronoi.Diagram, error) {
	points := toPoints(a.stations(p))

	opts := []voronoi.Option{voronoi.WithLogger(log)}
	if a.cfg.Diagram.ClipToBox {
		opts = append(opts, voronoi.WithBoundingBox(voronoi.NewBoundingBox(0, float64(p.width), 0, float64(p.height))))
	}
	diagram, err := voronoi.CreateDiagram(points, opts...)
	return points, diagram, err
}

// http handler of the page with the chart and the parameters form
func (a *app) diagramHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	p, err := a.parseParams(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	log := a.requestLogger()
	defer log.ClearLogs()

	points, diagram, err := a.compute(p, log)
	if err != nil {
		a.log.Error("diagram failed", zap.Error(err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	scatter := render.Chart(points, diagram, float64(p.width+p.height))

	form := p.form()
	if err := static.WriteHead(w, form); err != nil {
		a.log.Error("page render failed", zap.Error(err))
		return
	}
	if err := scatter.Render(w); err != nil {
		a.log.Error("chart render failed", zap.Error(err))
	}
	if err := static.WriteLogs(w, form, log.HTML()); err != nil {
		a.log.Error("page render failed", zap.Error(err))
	}
}

func (a *app) pngHandler(w http.ResponseWriter, r *http.Request) {
	p, err := a.parseParams(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	points, diagram, err := a.compute(p, a.log)
	if err != nil {
		a.log.Error("diagram failed", zap.Error(err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	if err := render.PNG(w, points, diagram, p.width, p.height); err != nil {
		a.log.Error("png render failed", zap.Error(err))
	}
}

func (a *app) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/", a.diagramHandler)
	mux.HandleFunc("/diagram.png", a.pngHandler)
	mux.HandleFunc("/api/diagram", a.apiHandler)
	return mux
}

func main() {
	configPath := flag.String("config", "", "path to a TOML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	a := &app{
		cfg: cfg,
		log: logger.New(logger.WithLevel(cfg.LogLevel()), logger.WithOutput(os.Stderr), logger.WithoutBuffer()),
	}
	defer a.log.Sync()

	a.log.Info("server started", zap.String("url", "http://localhost"+cfg.Server.Addr))
	if err := http.ListenAndServe(cfg.Server.Addr, a.routes()); err != nil {
		a.log.Error("ListenAndServe", zap.Error(err))
		os.Exit(1)
	}
}
