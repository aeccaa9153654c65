// Package fogbugz provides functionality for interacting with the FogBugz API.
//
// FogBugz exposes a command-style query interface: every call is a GET
// against a single endpoint with a cmd parameter, authenticated by a
// session token obtained from a logon command. The token is acquired
// lazily on the first privileged call and cached for the client's
// lifetime; it is never refreshed on expiry.
package fogbugz

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/TomDunham/fogharvest/internal/logging"
	"github.com/TomDunham/fogharvest/internal/xmlrec"
	"github.com/TomDunham/fogharvest/pkg/models"
)

// AuthError means logon was rejected or a token was required but not set.
// It is fatal for the run.
type AuthError struct {
	Reason string
	Err    error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fogbugz authentication failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("fogbugz authentication failed: %s", e.Reason)
}

func (e *AuthError) Unwrap() error { return e.Err }

// RemoteError means a transport call failed or returned unparsable
// content.
type RemoteError struct {
	URL string
	Err error
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("fogbugz request failed: %s: %v", e.URL, e.Err)
}

func (e *RemoteError) Unwrap() error { return e.Err }

// Client encapsulates the FogBugz API client.
type Client struct {
	baseURL  string
	email    string
	password string

	// set by logon
	apiURL string
	token  string

	httpClient *http.Client
}

// NewClient creates a FogBugz client. No network call is made until the
// first operation triggers logon.
func NewClient(baseURL, email, password string) *Client {
	return &Client{
		baseURL:    baseURL,
		email:      email,
		password:   password,
		httpClient: http.DefaultClient,
	}
}

// logon discovers the API endpoint from api.xml and trades the configured
// credentials for a session token.
func (c *Client) logon() error {
	discoveryURL, err := url.JoinPath(c.baseURL, "api.xml")
	if err != nil {
		return &RemoteError{URL: c.baseURL, Err: err}
	}
	root, err := c.open(discoveryURL)
	if err != nil {
		return err
	}
	endpoint := root.Find("url")
	if endpoint == nil {
		return &RemoteError{URL: discoveryURL, Err: fmt.Errorf("api.xml has no url element")}
	}
	base, err := url.Parse(c.baseURL)
	if err != nil {
		return &RemoteError{URL: c.baseURL, Err: err}
	}
	ref, err := url.Parse(endpoint.Value())
	if err != nil {
		return &RemoteError{URL: discoveryURL, Err: err}
	}
	c.apiURL = base.ResolveReference(ref).String()

	resp, err := c.call("logon", url.Values{
		"email":    {c.email},
		"password": {c.password},
	})
	if err != nil {
		return err
	}
	token := resp.Find("token")
	if token == nil || token.Value() == "" {
		if apiErr := resp.Find("error"); apiErr != nil {
			return &AuthError{Reason: apiErr.Value()}
		}
		return &AuthError{Reason: "logon response has no token"}
	}
	c.token = token.Value()
	logging.Info("fogbugz logon successful", "email", c.email)
	return nil
}

func (c *Client) logonIfRequired() error {
	if c.token == "" {
		return c.logon()
	}
	return nil
}

// cmdURL builds the query URL for cmd. Every command except logon carries
// the session token.
func (c *Client) cmdURL(cmd string, args url.Values) (string, error) {
	if cmd != "logon" {
		if c.token == "" {
			return "", &AuthError{Reason: "token not set - must logon first"}
		}
		args.Set("token", c.token)
	}
	args.Set("cmd", cmd)
	u, err := url.Parse(c.apiURL)
	if err != nil {
		return "", &RemoteError{URL: c.apiURL, Err: err}
	}
	u.RawQuery = args.Encode()
	return u.String(), nil
}

// open performs a GET and parses the XML response.
func (c *Client) open(rawURL string) (*xmlrec.Element, error) {
	logging.Debug("fogbugz request", "url", rawURL)
	resp, err := c.httpClient.Get(rawURL)
	if err != nil {
		return nil, &RemoteError{URL: rawURL, Err: err}
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &RemoteError{URL: rawURL, Err: err}
	}
	logging.Debug("fogbugz response", "length", len(body), "status", resp.StatusCode)
	if resp.StatusCode != http.StatusOK {
		return nil, &RemoteError{URL: rawURL, Err: fmt.Errorf("status %d: %s", resp.StatusCode, body)}
	}
	root, err := xmlrec.Parse(strings.NewReader(string(body)))
	if err != nil {
		return nil, &RemoteError{URL: rawURL, Err: err}
	}
	return root, nil
}

func (c *Client) call(cmd string, args url.Values) (*xmlrec.Element, error) {
	u, err := c.cmdURL(cmd, args)
	if err != nil {
		return nil, err
	}
	return c.open(u)
}

func parseInterval(el *xmlrec.Element) (models.Interval, error) {
	var iv models.Interval
	err := xmlrec.Bind(el, map[string]xmlrec.Setter{
		"ixInterval": xmlrec.Int(&iv.ID),
		"ixPerson":   xmlrec.Int(&iv.PersonID),
		"ixBug":      xmlrec.Int(&iv.BugID),
		"dtStart":    xmlrec.Timestamp(&iv.Start),
		"dtEnd":      xmlrec.Timestamp(&iv.End),
		"sTitle":     xmlrec.Text(&iv.Title),
		"fDeleted":   xmlrec.Bool(&iv.Deleted),
	})
	return iv, err
}

func parsePerson(el *xmlrec.Element) (models.Person, error) {
	var p models.Person
	err := xmlrec.Bind(el, map[string]xmlrec.Setter{
		"ixPerson":       xmlrec.Int(&p.ID),
		"sFullName":      xmlrec.Text(&p.FullName),
		"sEmail":         xmlrec.Text(&p.Email),
		"dtLastActivity": xmlrec.Timestamp(&p.LastActivity),
	})
	return p, err
}

func parseCase(el *xmlrec.Element) (models.Case, error) {
	var cs models.Case
	err := xmlrec.Bind(el, map[string]xmlrec.Setter{
		"ixBug":     xmlrec.Int(&cs.ID),
		"ixProject": xmlrec.Int(&cs.ProjectID),
		"sProject":  xmlrec.Text(&cs.ProjectName),
	})
	return cs, err
}

// Intervals returns time intervals for all people, optionally narrowed
// server side to those starting at or after since. Triggers logon if the
// client is not yet authenticated.
func (c *Client) Intervals(since *time.Time) ([]models.Interval, error) {
	if err := c.logonIfRequired(); err != nil {
		return nil, err
	}
	args := url.Values{"ixPerson": {"1"}}
	if since != nil {
		args.Set("dtStart", since.UTC().Format(xmlrec.TimestampLayout))
	}
	resp, err := c.call("listIntervals", args)
	if err != nil {
		return nil, err
	}
	var intervals []models.Interval
	for _, el := range resp.FindAll("interval") {
		iv, err := parseInterval(el)
		if err != nil {
			return nil, &RemoteError{URL: c.apiURL, Err: err}
		}
		intervals = append(intervals, iv)
	}
	return intervals, nil
}

// People returns the union of active and deleted people. The API only
// returns one group per call, so this issues two calls and concatenates
// the results without deduplication.
func (c *Client) People() ([]models.Person, error) {
	if err := c.logonIfRequired(); err != nil {
		return nil, err
	}
	var people []models.Person
	for _, flag := range []string{"fIncludeNormal", "fIncludeDeleted"} {
		resp, err := c.call("listPeople", url.Values{flag: {"1"}})
		if err != nil {
			return nil, err
		}
		for _, el := range resp.FindAll("person") {
			p, err := parsePerson(el)
			if err != nil {
				return nil, &RemoteError{URL: c.apiURL, Err: err}
			}
			people = append(people, p)
		}
	}
	return people, nil
}

// Cases batch-fetches ticket metadata for the given ids in one search
// call. Duplicate ids are collapsed before the call.
func (c *Client) Cases(ids []int) ([]models.Case, error) {
	if err := c.logonIfRequired(); err != nil {
		return nil, err
	}
	seen := make(map[int]bool)
	var distinct []string
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			distinct = append(distinct, strconv.Itoa(id))
		}
	}
	resp, err := c.call("search", url.Values{
		"q":    {strings.Join(distinct, ",")},
		"cols": {"ixBug,ixProject,sProject"},
	})
	if err != nil {
		return nil, err
	}
	var cases []models.Case
	for _, el := range resp.FindAll("case") {
		cs, err := parseCase(el)
		if err != nil {
			return nil, &RemoteError{URL: c.apiURL, Err: err}
		}
		cases = append(cases, cs)
	}
	return cases, nil
}
