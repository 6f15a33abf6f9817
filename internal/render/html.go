package render

import (
	"html/template"
	"io"
	"strings"
	"sync"

	"github.com/hyperjump/cyborgbench/internal/evaluator"
)

// DefaultLogSize is the number of chat entries kept by NewHTML.
const DefaultLogSize = 200

// Entry is one chat-log bubble. Body is already escaped.
type Entry struct {
	Class       string
	BubbleClass string
	Body        template.HTML
}

// UserEntry escapes text into a user bubble.
func UserEntry(text string) Entry {
	return Entry{Class: "msg msg-user", BubbleClass: "bubble bubble-user", Body: template.HTML(template.HTMLEscapeString(text))}
}

// BotEntry escapes reply into a bot bubble, turning newlines into <br>.
func BotEntry(reply string) Entry {
	escaped := template.HTMLEscapeString(reply)
	escaped = strings.ReplaceAll(escaped, "\r\n", "\n")
	return Entry{Class: "msg msg-bot", BubbleClass: "bubble bubble-bot", Body: template.HTML(strings.ReplaceAll(escaped, "\n", "<br>"))}
}

// ErrorEntry escapes msg into an inline error line.
func ErrorEntry(msg string) Entry {
	return Entry{Class: "msg msg-bot text-danger", Body: template.HTML(template.HTMLEscapeString(msg))}
}

// HTML keeps the chat log and dashboard of the server page.
type HTML struct {
	mu      sync.RWMutex
	entries []Entry
	limit   int
	view    DashboardView
}

// NewHTML returns a renderer holding at most size log entries (DefaultLogSize
// when size <= 0) and showing initial on the dashboard.
func NewHTML(size int, initial evaluator.DisplayModel) *HTML {
	if size <= 0 {
		size = DefaultLogSize
	}
	return &HTML{limit: size, view: NewDashboardView(initial)}
}

// RenderUser appends an escaped user bubble to the log.
func (h *HTML) RenderUser(text string) error {
	h.append(UserEntry(text))
	return nil
}

// RenderBot appends a bot bubble with newlines as <br>.
func (h *HTML) RenderBot(reply string) error {
	h.append(BotEntry(reply))
	return nil
}

// RenderError appends an error line in bot style.
func (h *HTML) RenderError(msg string) error {
	h.append(ErrorEntry(msg))
	return nil
}

// RenderDashboard replaces the metrics panel shown on the page.
func (h *HTML) RenderDashboard(m evaluator.DisplayModel) error {
	v := NewDashboardView(m)
	h.mu.Lock()
	h.view = v
	h.mu.Unlock()
	return nil
}

func (h *HTML) append(e Entry) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = append(h.entries, e)
	if over := len(h.entries) - h.limit; over > 0 {
		h.entries = append([]Entry(nil), h.entries[over:]...)
	}
}

// Entries returns a copy of the chat log, oldest first.
func (h *HTML) Entries() []Entry {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return append([]Entry(nil), h.entries...)
}

// View returns the dashboard currently shown.
func (h *HTML) View() DashboardView {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.view
}

// PageData is the input of the page template.
type PageData struct {
	Title     string
	Entries   []Entry
	Dashboard DashboardView
}

// WritePage renders the full page to w.
func (h *HTML) WritePage(w io.Writer, title string) error {
	return pageTemplate.Execute(w, PageData{Title: title, Entries: h.Entries(), Dashboard: h.View()})
}

var pageTemplate = template.Must(template.New("page").Parse(pageHTML))

const pageHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
<link rel="stylesheet" href="https://cdn.jsdelivr.net/npm/bootstrap@5.3.2/dist/css/bootstrap.min.css">
<link rel="stylesheet" href="https://cdnjs.cloudflare.com/ajax/libs/font-awesome/6.5.1/css/all.min.css">
<style>
#chatbox { height: 60vh; overflow-y: auto; }
.msg { display: flex; margin: .5rem 0; }
.msg-user { justify-content: flex-end; }
.bubble { padding: .5rem .75rem; border-radius: .75rem; max-width: 75%; }
.bubble-user { background: #0d6efd; color: #fff; }
.bubble-bot { background: #f1f3f5; }
</style>
</head>
<body class="bg-light">
<div class="container py-4">
  <div class="row g-4">
    <div class="col-lg-8">
      <div class="card shadow-sm">
        <div class="card-header d-flex justify-content-between align-items-center">
          <span class="fw-bold">{{.Title}}</span>
          <span id="mode-badge" class="{{.Dashboard.Badge.Class}}"><i class="fas {{.Dashboard.Badge.Icon}} me-1"></i> {{.Dashboard.Badge.Label}}</span>
        </div>
        <div id="chatbox" class="card-body">
          {{- range .Entries}}
          <div class="{{.Class}}">{{if .BubbleClass}}<div class="{{.BubbleClass}}">{{.Body}}</div>{{else}}{{.Body}}{{end}}</div>
          {{- end}}
        </div>
        <div class="card-footer">
          <form id="chatForm" method="post" action="/chat" class="d-flex gap-2">
            <input id="userInput" name="msg" class="form-control" autocomplete="off" placeholder="Ask about a transaction..." required>
            <button class="btn btn-primary" type="submit">Send</button>
          </form>
        </div>
      </div>
    </div>
    <div class="col-lg-4">
      <div class="card shadow-sm">
        <div class="card-header fw-bold">Search latency</div>
        <ul class="list-group list-group-flush">
          {{- range .Dashboard.Latency}}
          <li class="list-group-item d-flex justify-content-between"><span>{{.Label}}</span><span id="{{.ID}}" class="font-monospace">{{.Value}}</span></li>
          {{- end}}
        </ul>
        <div class="card-header fw-bold border-top">Privacy overhead</div>
        <ul class="list-group list-group-flush">
          {{- range .Dashboard.Overhead}}
          <li class="list-group-item d-flex justify-content-between"><span>{{.Label}}</span><span id="{{.ID}}" class="{{.Class}}">{{.Value}}</span></li>
          {{- end}}
        </ul>
      </div>
    </div>
  </div>
</div>
</body>
</html>
`
