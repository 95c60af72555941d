package dashboard

import (
	"context"
	"embed"
	"encoding/json"
	"html/template"
	"io"
	"net/http"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/a-h/templ"

	"github.com/KaramelBytes/rankboard/internal/board"
	"github.com/KaramelBytes/rankboard/internal/rank"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.New("").Funcs(template.FuncMap{
	"specJSON": func(v *board.View) template.JS {
		if v == nil {
			return "null"
		}
		b, err := json.Marshal(v.Spec)
		if err != nil {
			return "null"
		}
		return template.JS(b)
	},
	"signals": func(v *board.View) string {
		sig := PanelSignals{}
		if v != nil {
			sig = PanelSignals{Column: v.Column, Label: v.Label, Mode: string(v.Mode), Agg: viewAgg(v), N: v.N}
		}
		b, _ := json.Marshal(sig)
		return string(b)
	},
	"modes":   func() []rank.Mode { return []rank.Mode{rank.ModeTop, rank.ModeGroup, rank.ModeCount} },
	"aggs":    func() []string { return []string{string(rank.AggSum), string(rank.AggMean), string(rank.AggCount)} },
	"viewAgg": viewAgg,
	"chartQuery": func(v *board.View) template.URL {
		if v == nil {
			return ""
		}
		q := url.Values{}
		q.Set("label", v.Label)
		q.Set("column", v.Column)
		q.Set("mode", string(v.Mode))
		q.Set("n", strconv.Itoa(v.N))
		if agg := viewAgg(v); agg != "" {
			q.Set("agg", agg)
		}
		return template.URL(q.Encode())
	},
}).ParseFS(templateFS, "templates/*.html"))

// viewAgg is the aggregate a group view was built with, else "".
func viewAgg(v *board.View) string {
	if v.Mode != rank.ModeGroup || v.Ranking == nil {
		return ""
	}
	return string(v.Ranking.Agg)
}

// PageData is what the page and panel templates render.
type PageData struct {
	Title      string
	Caption    string
	Source     string
	Encoding   string
	UploadName string
	Uploaded   bool
	Notice     string
	Error      string
	View       *board.View
}

func (s *Server) newPageData(_ http.ResponseWriter, r *http.Request) *PageData {
	d := &PageData{
		Title:   s.cfg.Title,
		Caption: s.cfg.Caption,
		Source:  filepath.Base(s.cfg.DataPath),
	}
	if sess, err := s.sessionStore.Get(r, sessionName); err == nil {
		d.UploadName, _ = sess.Values[keyUploadName].(string)
	}
	return d
}

func (d *PageData) fromSource(src source) {
	if src.Table == nil {
		return
	}
	d.Source = src.Table.Name
	d.Encoding = src.Table.Encoding
	d.Uploaded = src.Uploaded
	if !src.Uploaded {
		d.UploadName = ""
	}
	var notices []string
	if src.Expired {
		notices = append(notices, "The uploaded file is no longer cached; showing the bundled dataset.")
	}
	if src.Table.Truncated > 0 {
		notices = append(notices, "Only the first "+strconv.Itoa(src.Table.Len())+" rows were loaded.")
	}
	d.Notice = strings.Join(notices, " ")
}

func render(name string, data *PageData) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		return templates.ExecuteTemplate(w, name, data)
	})
}

// Page is the full dashboard document.
func Page(data *PageData) templ.Component { return render("page", data) }

// Panel is the #panel fragment patched by /panel.
func Panel(data *PageData) templ.Component { return render("panel", data) }
