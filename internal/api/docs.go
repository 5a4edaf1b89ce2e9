package api

import (
	"net/http"

	"github.com/gaspardpetit/genrelay/core/logx"
)

const swaggerPage = `<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8" />
  <title>genrelay API</title>
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
  window.onload = () => {
    SwaggerUIBundle({
      url: 'openapi.json',
      dom_id: '#swagger-ui',
      tryItOutEnabled: true,
      supportedSubmitMethods: ['get', 'post'],
      defaultModelsExpandDepth: 0
    });
  };
  </script>
</body>
</html>`

// SwaggerHandler serves a Swagger UI page for ./openapi.json with
// try-it-out enabled so /generate-text can be exercised from the browser.
func SwaggerHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if _, err := w.Write([]byte(swaggerPage)); err != nil {
			logx.Log.Error().Err(err).Msg("write swagger page")
		}
	}
}
