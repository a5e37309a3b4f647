package server

import (
	"html/template"
	"net/http"

	"github.com/rs/zerolog"
)

type pageData struct {
	Error  string
	Report template.HTML
}

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>ClauseWise - Legal Document Analyzer</title>
<style>
body { font-family: system-ui, sans-serif; max-width: 60rem; margin: 2rem auto; padding: 0 1rem; color: #0b1e39; }
blockquote { border-left: 3px solid #c7a318; margin-left: 0; padding-left: 1rem; }
table { border-collapse: collapse; }
td, th { border: 1px solid #ccd; padding: .25rem .5rem; }
.error { color: #a00; }
</style>
</head>
<body>
<h1>ClauseWise</h1>
<form method="post" action="/analyze" enctype="multipart/form-data">
<p><label>Upload a PDF, DOCX or TXT file: <input type="file" name="file" accept=".pdf,.docx,.txt"></label></p>
<p><label>Or paste the text:<br><textarea name="text" rows="10" cols="80"></textarea></label></p>
<p><button type="submit">Analyze</button></p>
</form>
{{if .Error}}<p class="error">{{.Error}}</p>{{end}}
{{if .Report}}<hr>{{.Report}}{{end}}
</body>
</html>
`))

func indexHandler(w http.ResponseWriter, r *http.Request) {
	renderPage(w, r, http.StatusOK, pageData{})
}

func renderPage(w http.ResponseWriter, r *http.Request, status int, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := pageTemplate.Execute(w, data); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("Error rendering page")
	}
}
