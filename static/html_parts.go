// Package static renders the page around the chart: the parameters form,
// a link to the PNG of the same diagram and the log of the computation.
package static

import (
	"html/template"
	"io"
)

// Form is what the parameters form shows after a request.
type Form struct {
	Width    int
	Height   int
	Stations int
	Random   bool
	Seed     int64
}

// logsView is the data of the part after the chart.
type logsView struct {
	Form
	Logs template.HTML
}

var page = template.Must(template.New("page").Parse(`
{{define "head"}}<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Voronoi diagram</title>
<style>
:root {
	--bg: #1f1f1f;
	--panel: #1e1e1e;
	--field: #2b2b2b;
	--edge: #444;
	--rule: #757575;
	--text: #d3d3d3;
	--link: #9ccc65;
}
* { box-sizing: border-box; }
html, body { margin: 0; height: 100%; }
body {
	background: var(--bg);
	color: var(--text);
	font: 14px Consolas, monospace;
}
main {
	display: grid;
	grid-template-columns: minmax(420px, 1fr) 1fr;
	height: 100vh;
}
main > section { padding: 12px; overflow: auto; }
main > section + section { background: var(--panel); border-left: 5px solid var(--rule); }
h1 { font-size: 20px; margin: 0 0 12px; }
form { display: grid; grid-template-columns: max-content 140px; gap: 8px 12px; align-items: center; }
form button { grid-column: span 2; justify-self: start; }
input, button {
	background: var(--field);
	color: inherit;
	border: 1px solid var(--edge);
	border-radius: 4px;
	padding: 5px;
	font: inherit;
}
button:hover { background: var(--edge); cursor: pointer; }
a { color: var(--link); }
#logs { white-space: pre-wrap; overflow-wrap: anywhere; }
::-webkit-scrollbar { width: 8px; }
::-webkit-scrollbar-thumb { background: var(--edge); border-radius: 10px; }
::-webkit-scrollbar-track { background: var(--field); }
</style>
</head>
<body>
<main>
<section>
<h1>Voronoi diagram parameters</h1>
<form id="params" method="POST">
	<label for="width">Width</label>
	<input type="number" id="width" name="width" value="{{.Width}}" min="100" max="5000">
	<label for="height">Height</label>
	<input type="number" id="height" name="height" value="{{.Height}}" min="100" max="5000">
	<label for="stations">Stations</label>
	<input type="number" id="stations" name="stations" value="{{.Stations}}" min="1" max="10000">
	<label for="random">Random stations</label>
	<input type="checkbox" id="random" name="random" value="true"{{if .Random}} checked{{end}}>
	<label for="seed">Seed (0 is random)</label>
	<input type="number" id="seed" name="seed" value="{{.Seed}}">
	<button type="submit">Build</button>
</form>
{{end}}

{{define "logs"}}
<p><a href="/diagram.png?width={{.Width}}&height={{.Height}}&stations={{.Stations}}&random={{.Random}}&seed={{.Seed}}">PNG of this diagram</a></p>
</section>
<section>
<h1>Logs</h1>
<div id="logs">{{.Logs}}</div>
</section>
</main>
<script>
const form = document.getElementById('params');

async function rebuild(event) {
	event.preventDefault();
	const body = new URLSearchParams(new FormData(form));
	if (!form.random.checked) {
		body.set('random', 'false');
	}
	try {
		const resp = await fetch('/', { method: 'POST', body });
		const html = await resp.text();
		if (!resp.ok) {
			throw new Error(resp.status + ': ' + html);
		}
		document.open();
		document.write(html);
		document.close();
	} catch (err) {
		console.error('rebuild failed', err);
	}
}

form.addEventListener('submit', rebuild);
</script>
</body>
</html>
{{end}}
`))

// WriteHead writes everything up to the chart.
func WriteHead(w io.Writer, f Form) error {
	return page.ExecuteTemplate(w, "head", f)
}

// WriteLogs writes the rest of the page. logs must be already escaped HTML.
func WriteLogs(w io.Writer, f Form, logs string) error {
	return page.ExecuteTemplate(w, "logs", logsView{Form: f, Logs: template.HTML(logs)})
}
