package initcmd

import (
	"strings"

	"github.com/MakeNowJust/heredoc"
)

var templates = []template{
	{
		Name:        "minimal",
		Description: describeTemplate(fileConfig),
		Files: []fileSpec{
			{Path: fileConfig, Data: configHop, Mode: filePerm},
		},
	},
	{
		Name:        "standard",
		Description: describeTemplate(fileConfig, fileExample),
		Files: []fileSpec{
			{Path: fileConfig, Data: configHop, Mode: filePerm},
			{Path: fileExample, Data: exampleHop, Mode: filePerm},
		},
	},
}

func findTemplate(name string) (template, bool) {
	for _, t := range templates {
		if t.Name == name {
			return t, true
		}
	}
	return template{}, false
}

func templateNames() []string {
	names := make([]string, 0, len(templates))
	for _, t := range templates {
		names = append(names, t.Name)
	}
	return names
}

func describeTemplate(files ...string) string {
	return strings.Join(files, " + ")
}

var configHop = heredoc.Doc(`
	# Connection shared by every .hop file in this workspace.
	# "unsafe" switches to plain HTTP on port 80; port= overrides either default.
	<connect>
	host=httpbin.org
	</connect>
`)

var exampleHop = heredoc.Doc(`
	# Requests run top to bottom over one connection.
	<query>
	url=/get
	method=GET
	<assert>
	status = 200
	content-type ^ application/json
	body ~ httpbin.org
	</assert>
	</query>

	<query>
	url=/post
	method=POST
	content-type=application/json
	<body>
	{"hello": "nethop"}
	</body>
	<assert>
	status = 200
	body ~ nethop
	</assert>
	</query>

	# Without assertions the response is printed.
	<query>
	url=/headers
	</query>
`)
