package transport

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"

	"socmint/internal/components/telemetry"

	"github.com/go-resty/resty/v2"
)

const report_dump_write = "dump.write"

// DumpOutput receives a rendered request/response exchange.
type DumpOutput interface {
	Write(id string, contents string)
}

// DirDump writes each exchange into its own file under a directory.
type DirDump struct {
	dir string
	tel telemetry.API
}

// NewDirDump creates dir if needed, existing dumps are left in place.
func NewDirDump(dir string, tel telemetry.API) (DirDump, error) {
	err := os.MkdirAll(dir, 0755)
	if err != nil {
		return DirDump{}, fmt.Errorf("create dump dir: %w", err)
	}
	return DirDump{dir: dir, tel: tel}, nil
}

func (d DirDump) Write(id string, contents string) {
	err := os.WriteFile(filepath.Join(d.dir, id), []byte(contents), 0600)
	if err != nil {
		d.tel.ReportWarning(report_dump_write, err, id)
	}
}

func formatHeaders(headers http.Header) string {
	keys := make([]string, 0, len(headers))
	for k := range headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	lines := []string{}
	for _, k := range keys {
		for _, v := range headers[k] {
			lines = append(lines, fmt.Sprintf("%s: %s", k, v))
		}
	}
	return strings.Join(lines, "\n")
}

func formatRequestBody(req *http.Request) string {
	if req.GetBody == nil {
		return ""
	}
	body, err := req.GetBody()
	if err != nil {
		return fmt.Sprintf("failed to get request body: %s", err.Error())
	}
	defer body.Close()
	buff, err := io.ReadAll(body)
	if err != nil {
		return fmt.Sprintf("failed to read request body: %s", err.Error())
	}
	return string(buff)
}

// 1: request method
// 2: request url
// 3: request headers
// 4: request body
// 5: response status
// 6: response headers
// 7: response body
const exchangeTemplate = `---- REQUEST ----

%s %s

%s

%s

---- RESPONSE ----

%d

%s

%s
`

func formatExchange(res *resty.Response) string {
	var reqHeaders, reqBody string
	if raw := res.Request.RawRequest; raw != nil {
		reqHeaders = formatHeaders(raw.Header)
		reqBody = formatRequestBody(raw)
	}
	return fmt.Sprintf(
		exchangeTemplate,
		res.Request.Method, res.Request.URL,
		reqHeaders,
		reqBody,
		res.StatusCode(),
		formatHeaders(res.Header()),
		res.String(),
	)
}

// InstrumentDump hands every completed exchange of client to output, files
// are numbered in completion order.
func InstrumentDump(client *resty.Client, output DumpOutput) {
	var counter atomic.Uint64
	client.OnAfterResponse(func(_ *resty.Client, res *resty.Response) error {
		id := fmt.Sprintf("%04d-%s.txt", counter.Add(1), strings.ToLower(res.Request.Method))
		output.Write(id, formatExchange(res))
		return nil
	})
}
