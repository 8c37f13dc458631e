package oauth

import "strings"

// successHTML is the acknowledgment page served to the browser when the
// redirect carried an authorization code. The tab can be closed; the CLI
// continues on its own.
const successHTML = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <title>Login Successful - skyforge</title>
    <style>
        body {
            font-family: -apple-system, 'Segoe UI', Roboto, Ubuntu, sans-serif;
            display: flex;
            justify-content: center;
            align-items: center;
            min-height: 100vh;
            margin: 0;
            background: #f3f4f6;
        }
        .panel {
            text-align: center;
            background: #10b981;
            color: white;
            padding: 2.5rem 3rem;
            border-radius: 12px;
            box-shadow: 0 10px 25px rgba(0,0,0,0.1);
        }
        h1 { margin: 0 0 0.75rem; font-size: 1.5rem; }
        p { margin: 0; opacity: 0.9; }
    </style>
</head>
<body>
    <div class="panel">
        <h1>Login successful</h1>
        <p>Authentication is complete. You can close this window and return to the terminal.</p>
    </div>
</body>
</html>
`

// errorHTML is the acknowledgment page served when the redirect carried no
// code. {{DESCRIPTION}} is replaced with the provider's error description
// when one was given.
const errorHTML = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <title>Login Failed - skyforge</title>
    <style>
        body {
            font-family: -apple-system, 'Segoe UI', Roboto, Ubuntu, sans-serif;
            display: flex;
            justify-content: center;
            align-items: center;
            min-height: 100vh;
            margin: 0;
            background: #f3f4f6;
        }
        .panel {
            text-align: center;
            background: #ef4444;
            color: white;
            padding: 2.5rem 3rem;
            border-radius: 12px;
            box-shadow: 0 10px 25px rgba(0,0,0,0.1);
        }
        h1 { margin: 0 0 0.75rem; font-size: 1.5rem; }
        p { margin: 0; opacity: 0.9; }
    </style>
</head>
<body>
    <div class="panel">
        <h1>Login failed</h1>
        <p>{{DESCRIPTION}}</p>
    </div>
</body>
</html>
`

// renderErrorHTML fills the error page with description, falling back to a
// generic line when the provider sent none.
func renderErrorHTML(description string) string {
	if description == "" {
		description = "No authorization code was received."
	}
	return strings.Replace(errorHTML, "{{DESCRIPTION}}", description, 1)
}
