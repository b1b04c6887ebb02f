package activation

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/callhubmcp/callhubmcp/internal/account"
	"github.com/callhubmcp/callhubmcp/internal/api"
)

// progressJobIDRe matches the job id CallHub embeds in an inline script
// on the export page.
var progressJobIDRe = regexp.MustCompile(`var progress_job_id = "([^"]+)";`)

const (
	exportMaxPolls     = 20
	exportPollInterval = 3 * time.Second
)

// Exporter pulls pending agent activation URLs out of CallHub's export
// flow: start the export, poll until the file is ready, download and
// parse the CSV.
type Exporter struct {
	resolver *account.Resolver
	http     *http.Client

	maxPolls     int
	pollInterval time.Duration
	sleep        func(ctx context.Context, d time.Duration) error
}

// NewExporter creates an exporter using the given credential resolver.
func NewExporter(resolver *account.Resolver) *Exporter {
	return &Exporter{
		resolver:     resolver,
		http:         &http.Client{Timeout: 30 * time.Second},
		maxPolls:     exportMaxPolls,
		pollInterval: exportPollInterval,
		sleep:        sleepCtx,
	}
}

// Export runs the full export flow for an account and returns the parsed
// activation records.
func (e *Exporter) Export(ctx context.Context, accountName string) ([]Record, error) {
	acct, err := e.resolver.Resolve(accountName)
	if err != nil {
		return nil, err
	}

	jobID, err := e.startExport(ctx, acct)
	if err != nil {
		return nil, err
	}
	slog.Info("activation export started", "account", acct.Name, "job", jobID)

	downloadURL, err := e.pollExport(ctx, acct, jobID)
	if err != nil {
		return nil, err
	}

	csvData, err := e.download(ctx, acct, downloadURL)
	if err != nil {
		return nil, err
	}
	return ParseCSV(strings.NewReader(csvData))
}

// startExport kicks off the export and scrapes the progress job id from
// the returned page.
func (e *Exporter) startExport(ctx context.Context, acct account.Account) (string, error) {
	body, status, err := e.fetch(ctx, acct, api.BuildURL(acct.BaseURL, "agent/reactivate_export/"))
	if err != nil {
		return "", err
	}
	if status >= 400 {
		return "", e.httpError(acct, "agent/reactivate_export/", status)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return "", &FormatError{Reason: "export page is not HTML: " + err.Error()}
	}

	var jobID string
	doc.Find("script").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if m := progressJobIDRe.FindStringSubmatch(s.Text()); m != nil {
			jobID = m[1]
			return false
		}
		return true
	})
	if jobID == "" {
		// Some deployments inline the variable outside a script tag.
		if m := progressJobIDRe.FindStringSubmatch(body); m != nil {
			jobID = m[1]
		}
	}
	if jobID == "" {
		return "", &api.Error{
			Kind:     api.KindDecode,
			Endpoint: "agent/reactivate_export/",
			Account:  acct.Name,
			Detail:   "could not find export job id in response, this may indicate an authentication issue",
		}
	}
	return jobID, nil
}

type exportStatus struct {
	State string `json:"state"`
	Data  struct {
		URL     string `json:"url"`
		Current int    `json:"current"`
		Total   int    `json:"total"`
	} `json:"data"`
}

// pollExport checks the export's progress endpoint until it reports
// SUCCESS, returning the relative download URL.
func (e *Exporter) pollExport(ctx context.Context, acct account.Account, jobID string) (string, error) {
	endpoint := "exported_file/progress/" + jobID + "/"
	for attempt := 0; attempt < e.maxPolls; attempt++ {
		// Cache-buster, same trick the web UI uses.
		u := fmt.Sprintf("%s?_=%d", api.BuildURL(acct.BaseURL, endpoint), time.Now().UnixMilli())
		body, status, err := e.fetch(ctx, acct, u)
		if err != nil {
			return "", err
		}
		if status >= 400 {
			return "", e.httpError(acct, endpoint, status)
		}

		var st exportStatus
		if err := json.Unmarshal([]byte(body), &st); err != nil {
			return "", &api.Error{
				Kind: api.KindDecode, Endpoint: endpoint, Account: acct.Name,
				Detail: "invalid JSON from export status endpoint", Err: err,
			}
		}

		switch st.State {
		case "SUCCESS":
			if st.Data.URL == "" {
				return "", &api.Error{
					Kind: api.KindDecode, Endpoint: endpoint, Account: acct.Name,
					Detail: "export completed but no download URL found",
				}
			}
			return st.Data.URL, nil
		case "PROGRESS":
			slog.Debug("activation export progress",
				"account", acct.Name, "current", st.Data.Current, "total", st.Data.Total)
			if err := e.sleep(ctx, e.pollInterval); err != nil {
				return "", err
			}
		default:
			return "", &api.Error{
				Kind: api.KindServer, Endpoint: endpoint, Account: acct.Name,
				Detail: "export job in unexpected state: " + st.State,
			}
		}
	}
	return "", &api.Error{
		Kind: api.KindServer, Endpoint: endpoint, Account: acct.Name,
		Detail: fmt.Sprintf("export timed out after %d attempts", e.maxPolls),
	}
}

func (e *Exporter) download(ctx context.Context, acct account.Account, downloadURL string) (string, error) {
	u := api.BuildURL(acct.BaseURL, downloadURL)
	body, status, err := e.fetch(ctx, acct, u)
	if err != nil {
		return "", err
	}
	if status >= 400 {
		return "", e.httpError(acct, downloadURL, status)
	}
	return body, nil
}

func (e *Exporter) fetch(ctx context.Context, acct account.Account, url string) (string, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", 0, err
	}
	req.Header.Set("Authorization", "Token "+acct.APIKey)

	resp, err := e.http.Do(req)
	if err != nil {
		return "", 0, &api.Error{Kind: api.KindServer, Endpoint: url, Account: acct.Name, Err: err}
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", 0, &api.Error{Kind: api.KindDecode, Endpoint: url, Account: acct.Name, Err: err}
	}
	return string(body), resp.StatusCode, nil
}

func (e *Exporter) httpError(acct account.Account, endpoint string, status int) error {
	detail := http.StatusText(status)
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		detail = "authentication failed, this endpoint may require session-based authentication"
	}
	kind := api.KindClient
	if status >= 500 {
		kind = api.KindServer
	}
	return &api.Error{Kind: kind, Status: status, Endpoint: endpoint, Account: acct.Name, Detail: detail}
}
