package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/JonMunkholm/FeedStatus/internal/core"
	"github.com/JonMunkholm/FeedStatus/internal/web"
	"github.com/spf13/cobra"
)

var (
	serverURL     string
	uploadUser    string
	uploadPass    string
	uploadTimeout time.Duration
)

var uploadCmd = &cobra.Command{
	Use:   "upload <dataset> <file.csv>",
	Short: "Upload a CSV file to a running dashboard",
	Long: `Logs in to the dashboard and replaces the dataset with the file's rows,
exactly as the admin upload button does. The upload is recorded in the
audit log with this machine's address.

Credentials default to ADMIN_USERNAME and ADMIN_PASSWORD.`,
	Args: cobra.ExactArgs(2),
	RunE: runUpload,
}

func init() {
	uploadCmd.Flags().StringVar(&serverURL, "server", "http://localhost:8080", "dashboard base URL")
	uploadCmd.Flags().StringVar(&uploadUser, "username", "", "admin username (default ADMIN_USERNAME)")
	uploadCmd.Flags().StringVar(&uploadPass, "password", "", "admin password (default ADMIN_PASSWORD)")
	uploadCmd.Flags().DurationVar(&uploadTimeout, "timeout", 2*time.Minute, "request timeout")
}

// apiClient talks to the dashboard's JSON API with the admin cookie.
type apiClient struct {
	base string
	http *http.Client
}

func newAPIClient(base string, timeout time.Duration) (*apiClient, error) {
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("invalid server URL: %w", err)
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	return &apiClient{
		base: strings.TrimRight(base, "/"),
		http: &http.Client{Jar: jar, Timeout: timeout},
	}, nil
}

func (c *apiClient) login(ctx context.Context, username, password string) error {
	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/login", strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	return c.do(req, nil)
}

func (c *apiClient) upload(ctx context.Context, key core.DatasetKey, name string, r io.Reader) (*core.IngestResult, error) {
	var body bytes.Buffer
	mp := multipart.NewWriter(&body)
	part, err := mp.CreateFormFile("file", name)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, err
	}
	if err := mp.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.base+"/api/"+url.PathEscape(string(key))+"/upload", &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mp.FormDataContentType())

	var res core.IngestResult
	if err := c.do(req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// do sends req and decodes a 2xx JSON body into out. Other statuses are
// returned as the server's error message and code.
func (c *apiClient) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 300 {
		var e web.ErrorResponse
		if json.Unmarshal(data, &e) == nil && e.Code != "" {
			msg := fmt.Sprintf("%s (%s, HTTP %d)", e.Message, e.Code, resp.StatusCode)
			for _, row := range e.Rows {
				msg += "\n  " + row
			}
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("%s %s: HTTP %d", req.Method, req.URL.Path, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(data, out)
}

func runUpload(cmd *cobra.Command, args []string) error {
	key, err := core.ParseDatasetKey(args[0])
	if err != nil {
		return err
	}
	f, err := os.Open(args[1])
	if err != nil {
		return err
	}
	defer f.Close()

	user, pass := uploadUser, uploadPass
	if user == "" {
		user = cfg.Auth.Username
	}
	if pass == "" {
		pass = cfg.Auth.Password
	}

	client, err := newAPIClient(serverURL, uploadTimeout)
	if err != nil {
		return err
	}
	ctx := commandContext(cmd)
	if err := client.login(ctx, user, pass); err != nil {
		return fmt.Errorf("login: %w", err)
	}
	res, err := client.upload(ctx, key, filepath.Base(args[1]), f)
	if err != nil {
		return fmt.Errorf("upload: %w", err)
	}

	out := cmd.OutOrStdout()
	if jsonOut {
		return writeJSON(out, res)
	}
	fmt.Fprintln(out, res.Message)
	fmt.Fprintf(out, "%d accepted, %d skipped of %d rows (upload %s)\n", res.Accepted, res.Skipped, res.TotalRows, res.UploadID)
	return nil
}
