package viewer

import (
	"bytes"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"time"

	"github.com/banshee-data/lascloud/internal/catalog"
	"github.com/banshee-data/lascloud/internal/cloud"
	"github.com/banshee-data/lascloud/internal/monitoring"
	"github.com/banshee-data/lascloud/internal/render"
	"github.com/banshee-data/lascloud/internal/svm"
)

// entryFromQuery resolves the cloud named by the request's ?cloud= parameter.
// An absent parameter resolves when exactly one cloud is loaded.
func (ws *WebServer) entryFromQuery(r *http.Request) (*Entry, error) {
	return ws.registry.Get(r.URL.Query().Get("cloud"))
}

func intParam(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

func classParam(r *http.Request, name string) (uint8, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, fmt.Errorf("missing required parameter %q", name)
	}
	v, err := strconv.ParseUint(raw, 10, 8)
	if err != nil {
		return 0, fmt.Errorf("invalid class %q: must be 0-255", raw)
	}
	return uint8(v), nil
}

// handleView renders the interactive class-colored 3-D scatter.
func (ws *WebServer) handleView(w http.ResponseWriter, r *http.Request) {
	entry, err := ws.entryFromQuery(r)
	if err != nil {
		ws.writeJSONError(w, http.StatusNotFound, err.Error())
		return
	}

	start := time.Now()
	scatter, err := render.ClassScatter3D(entry.Cloud, render.SceneOptions{
		Title:     fmt.Sprintf("Point Cloud: %s", entry.Path),
		Subtitle:  fmt.Sprintf("%d points", entry.Cloud.Count()),
		MaxPoints: intParam(r, "max_points", ws.cfg.MaxPoints),
	})
	if err != nil {
		ws.writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}

	var buf bytes.Buffer
	if err := scatter.Render(&buf); err != nil {
		ws.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to render chart: %v", err))
		return
	}
	renderSeconds.WithLabelValues("scatter").Observe(time.Since(start).Seconds())

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}

// handlePlane trains a separating plane between two classes and renders the
// scatter with the plane surface overlaid.
func (ws *WebServer) handlePlane(w http.ResponseWriter, r *http.Request) {
	entry, err := ws.entryFromQuery(r)
	if err != nil {
		ws.writeJSONError(w, http.StatusNotFound, err.Error())
		return
	}
	classA, err := classParam(r, "class_a")
	if err != nil {
		ws.writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	classB, err := classParam(r, "class_b")
	if err != nil {
		ws.writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	trainStart := time.Now()
	res, err := svm.Train(entry.Cloud, classA, classB, svm.Config{})
	if err != nil {
		ws.writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	planeTrainSeconds.Observe(time.Since(trainStart).Seconds())
	monitoring.Logf("trained plane %d/%d on %s: %d samples, accuracy %.3f",
		classA, classB, entry.Path, res.Samples, res.Accuracy)

	if ws.db != nil {
		rec := &catalog.PlaneRecord{
			FileID:   entry.FileID,
			ClassA:   classA,
			ClassB:   classB,
			Plane:    res.Plane,
			Accuracy: res.Accuracy,
			Samples:  res.Samples,
		}
		if err := ws.db.RecordPlane(rec); err != nil {
			monitoring.Logf("failed to record plane: %v", err)
		}
	}

	start := time.Now()
	scatter, err := render.ClassScatter3D(entry.Cloud, render.SceneOptions{
		Title: fmt.Sprintf("Separating Plane: %s vs %s",
			cloud.ClassName(classA), cloud.ClassName(classB)),
		Subtitle:  fmt.Sprintf("accuracy %.1f%% over %d samples", res.Accuracy*100, res.Samples),
		MaxPoints: intParam(r, "max_points", ws.cfg.MaxPoints),
	})
	if err != nil {
		ws.writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	grid := intParam(r, "grid", ws.cfg.PlaneGrid)
	if err := render.AddPlaneOverlay(scatter, entry.Cloud, res, grid, 0); err != nil {
		ws.writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}

	var buf bytes.Buffer
	if err := scatter.Render(&buf); err != nil {
		ws.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to render chart: %v", err))
		return
	}
	renderSeconds.WithLabelValues("plane").Observe(time.Since(start).Seconds())

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}

// handleProjection renders a static top-down image of the cloud.
func (ws *WebServer) handleProjection(w http.ResponseWriter, r *http.Request) {
	entry, err := ws.entryFromQuery(r)
	if err != nil {
		ws.writeJSONError(w, http.StatusNotFound, err.Error())
		return
	}

	format := r.URL.Query().Get("format")
	if format == "" {
		format = "png"
	}
	if format != "png" && format != "svg" {
		ws.writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("unsupported format %q", format))
		return
	}

	start := time.Now()
	var buf bytes.Buffer
	err = render.WriteProjection(entry.Cloud, &buf, render.ProjectionOptions{
		Title:     entry.Path,
		MaxPoints: intParam(r, "max_points", ws.cfg.MaxPoints),
		Format:    format,
	})
	if err != nil {
		ws.writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	renderSeconds.WithLabelValues("projection").Observe(time.Since(start).Seconds())

	if format == "svg" {
		w.Header().Set("Content-Type", "image/svg+xml")
	} else {
		w.Header().Set("Content-Type", "image/png")
	}
	w.Write(buf.Bytes())
}

// cloudInfo is the /api/clouds list entry.
type cloudInfo struct {
	FileID      string `json:"file_id"`
	Path        string `json:"path"`
	PointFormat uint8  `json:"point_format"`
	PointCount  int    `json:"point_count"`
	HasClasses  bool   `json:"has_classes"`
}

func (ws *WebServer) handleClouds(w http.ResponseWriter, r *http.Request) {
	entries := ws.registry.List()
	out := make([]cloudInfo, 0, len(entries))
	for _, e := range entries {
		out = append(out, cloudInfo{
			FileID:      e.FileID,
			Path:        e.Path,
			PointFormat: e.Header.PointFormat,
			PointCount:  e.Cloud.Count(),
			HasClasses:  e.Cloud.HasClasses(),
		})
	}
	ws.writeJSON(w, out)
}

func (ws *WebServer) handleSummary(w http.ResponseWriter, r *http.Request) {
	entry, err := ws.entryFromQuery(r)
	if err != nil {
		ws.writeJSONError(w, http.StatusNotFound, err.Error())
		return
	}
	summary, err := entry.Cloud.Summarize()
	if err != nil {
		ws.writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	ws.writeJSON(w, summary)
}

func (ws *WebServer) handleRanges(w http.ResponseWriter, r *http.Request) {
	entry, err := ws.entryFromQuery(r)
	if err != nil {
		ws.writeJSONError(w, http.StatusNotFound, err.Error())
		return
	}
	bounds, err := entry.Cloud.Bounds()
	if err != nil {
		ws.writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	ws.writeJSON(w, bounds)
}

func (ws *WebServer) handleClasses(w http.ResponseWriter, r *http.Request) {
	entry, err := ws.entryFromQuery(r)
	if err != nil {
		ws.writeJSONError(w, http.StatusNotFound, err.Error())
		return
	}
	hist := entry.Cloud.ClassHistogram()
	out := make([]cloud.ClassCount, 0, len(hist))
	for _, cl := range entry.Cloud.UniqueClasses() {
		out = append(out, cloud.ClassCount{Class: cl, Name: cloud.ClassName(cl), Count: hist[cl]})
	}
	ws.writeJSON(w, out)
}

var dashboardTemplate = template.Must(template.New("dashboard").Parse(`<!DOCTYPE html>
<html>
<head>
	<title>LAS Cloud Viewer</title>
	<style>
		body { font-family: -apple-system, sans-serif; margin: 2em; background: #1a1a1a; color: #e0e0e0; }
		table { border-collapse: collapse; width: 100%; }
		th, td { text-align: left; padding: 8px 12px; border-bottom: 1px solid #333; }
		a { color: #6cf; }
		code { color: #9e9; }
	</style>
</head>
<body>
	<h1>LAS Cloud Viewer</h1>
	<p>{{len .Clouds}} clouds loaded, {{.TotalPoints}} points total.</p>
	<table>
		<tr><th>File</th><th>Points</th><th>Labels</th><th>Views</th></tr>
		{{range .Clouds}}<tr>
			<td><code>{{.Path}}</code></td>
			<td>{{.Points}}</td>
			<td>{{.Labels}}</td>
			<td>
				<a href="/view?cloud={{.FileID}}">3D view</a> |
				<a href="/projection?cloud={{.FileID}}">projection</a> |
				<a href="/api/cloud/summary?cloud={{.FileID}}">summary</a>
				{{range .Planes}}| <a href="/plane?cloud={{.FileID}}&amp;class_a={{.ClassA}}&amp;class_b={{.ClassB}}">plane {{.ClassA}}v{{.ClassB}}</a>
				{{end}}
			</td>
		</tr>
		{{else}}<tr><td colspan="4">No clouds loaded. Start the server with -las &lt;file&gt;.</td></tr>
		{{end}}
	</table>
	<p><a href="/metrics">metrics</a> | <a href="/health">health</a></p>
</body>
</html>`))

type dashboardPlane struct {
	FileID string
	ClassA uint8
	ClassB uint8
}

type dashboardCloud struct {
	FileID string
	Path   string
	Points int
	Labels string
	Planes []dashboardPlane
}

// handleDashboard serves an HTML index of the loaded clouds with links into
// the interactive views, including a plane link per class pair (the lowest
// class against each other class).
func (ws *WebServer) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	var clouds []dashboardCloud
	for _, e := range ws.registry.List() {
		dc := dashboardCloud{
			FileID: e.FileID,
			Path:   e.Path,
			Points: e.Cloud.Count(),
			Labels: "no",
		}
		if e.Cloud.HasClasses() {
			classes := e.Cloud.UniqueClasses()
			dc.Labels = fmt.Sprintf("%d classes", len(classes))
			for _, cl := range classes[1:] {
				dc.Planes = append(dc.Planes, dashboardPlane{
					FileID: e.FileID,
					ClassA: classes[0],
					ClassB: cl,
				})
			}
		}
		clouds = append(clouds, dc)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err := dashboardTemplate.Execute(w, struct {
		Clouds      []dashboardCloud
		TotalPoints int
	}{clouds, ws.registry.TotalPoints()})
	if err != nil {
		monitoring.Logf("failed to render dashboard: %v", err)
	}
}
