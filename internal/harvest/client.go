// Package harvest provides functionality for interacting with the Harvest API.
//
// Unlike FogBugz there is no session state: every request carries basic
// auth credentials. Reads and writes are XML against date-scoped paths.
package harvest

import (
	"bytes"
	"encoding/xml"
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

// devTaskPrefix selects the billing task submitted against: the first
// task in a project whose name starts with this literal.
const devTaskPrefix = "Development"

// RemoteError means a transport call failed or returned unparsable
// content.
type RemoteError struct {
	URL string
	Err error
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("harvest request failed: %s: %v", e.URL, e.Err)
}

func (e *RemoteError) Unwrap() error { return e.Err }

// typedValue is element text carrying Harvest's type attribute, eg
// <task_id type="integer">123</task_id>.
type typedValue struct {
	Type  string `xml:"type,attr"`
	Value string `xml:",chardata"`
}

// EntryRequest is the XML body posted to /daily/add.
type EntryRequest struct {
	XMLName   xml.Name   `xml:"request"`
	Notes     string     `xml:"notes"`
	SpentAt   typedValue `xml:"spent_at"`
	Hours     string     `xml:"hours"`
	TaskID    typedValue `xml:"task_id"`
	ProjectID typedValue `xml:"project_id"`
}

// NewEntryRequest builds a submission body with the type attributes
// Harvest expects.
func NewEntryRequest(notes, spentAt, hours, taskID, projectID string) EntryRequest {
	return EntryRequest{
		Notes:     notes,
		SpentAt:   typedValue{Type: "date", Value: spentAt},
		Hours:     hours,
		TaskID:    typedValue{Type: "integer", Value: taskID},
		ProjectID: typedValue{Type: "integer", Value: projectID},
	}
}

// Client encapsulates the Harvest API client.
type Client struct {
	apiURL   string
	email    string
	password string

	httpClient *http.Client
}

// NewClient creates a Harvest client for the given account URL and
// credentials.
func NewClient(apiURL, email, password string) *Client {
	return &Client{
		apiURL:     apiURL,
		email:      email,
		password:   password,
		httpClient: http.DefaultClient,
	}
}

// open performs one authenticated request and parses the XML response.
// A nil body means GET, otherwise POST.
func (c *Client) open(path string, body []byte) (*xmlrec.Element, error) {
	base, err := url.Parse(c.apiURL)
	if err != nil {
		return nil, &RemoteError{URL: c.apiURL, Err: err}
	}
	ref, err := url.Parse(path)
	if err != nil {
		return nil, &RemoteError{URL: path, Err: err}
	}
	requestURL := base.ResolveReference(ref).String()
	logging.Debug("harvest request", "url", requestURL, "body_length", len(body))

	method := http.MethodGet
	var reader io.Reader
	if body != nil {
		method = http.MethodPost
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequest(method, requestURL, reader)
	if err != nil {
		return nil, &RemoteError{URL: requestURL, Err: err}
	}
	req.SetBasicAuth(c.email, c.password)
	req.Header.Set("Accept", "application/xml")
	req.Header.Set("Content-Type", "application/xml")
	req.Header.Set("User-Agent", "fogharvest")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &RemoteError{URL: requestURL, Err: err}
	}
	defer resp.Body.Close()
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &RemoteError{URL: requestURL, Err: err}
	}
	logging.Debug("harvest response", "length", len(respBody), "status", resp.StatusCode)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &RemoteError{URL: requestURL, Err: fmt.Errorf("status %d: %s", resp.StatusCode, respBody)}
	}
	root, err := xmlrec.Parse(bytes.NewReader(respBody))
	if err != nil {
		return nil, &RemoteError{URL: requestURL, Err: err}
	}
	return root, nil
}

func parseUser(el *xmlrec.Element) (models.HarvestUser, error) {
	var u models.HarvestUser
	err := xmlrec.Bind(el, map[string]xmlrec.Setter{
		"id":    xmlrec.Int(&u.ID),
		"email": xmlrec.Text(&u.Email),
	})
	return u, err
}

func parseDayEntry(el *xmlrec.Element) (models.DayEntry, error) {
	var d models.DayEntry
	err := xmlrec.Bind(el, map[string]xmlrec.Setter{
		"id":       xmlrec.Int(&d.ID),
		"project":  xmlrec.Text(&d.Project),
		"hours":    xmlrec.Float(&d.Hours),
		"notes":    xmlrec.Text(&d.Notes),
		"spent_at": xmlrec.Datestamp(&d.SpentAt),
	})
	return d, err
}

func parseProject(el *xmlrec.Element) (models.Project, error) {
	var p models.Project
	err := xmlrec.Bind(el, map[string]xmlrec.Setter{
		"id":   xmlrec.Int(&p.ID),
		"name": xmlrec.Text(&p.Name),
	})
	return p, err
}

func firstChild(el *xmlrec.Element, tag string) *xmlrec.Element {
	children := el.ChildrenNamed(tag)
	if len(children) == 0 {
		return nil
	}
	return children[0]
}

// dailyPath is the date-scoped day view, /daily/<day-of-year>/<year>.
func dailyPath(date time.Time) string {
	return fmt.Sprintf("/daily/%d/%d", date.YearDay(), date.Year())
}

// Daily returns the timesheet entries already recorded for date.
func (c *Client) Daily(date time.Time) ([]models.DayEntry, error) {
	root, err := c.open(dailyPath(date), nil)
	if err != nil {
		return nil, err
	}
	var entries []models.DayEntry
	for _, el := range root.FindAll("day_entry") {
		d, err := parseDayEntry(el)
		if err != nil {
			return nil, &RemoteError{URL: c.apiURL, Err: err}
		}
		entries = append(entries, d)
	}
	return entries, nil
}

// DailyDevTasks returns, per project in the day's project/task tree, the
// first task whose name starts with "Development". A project without one
// is skipped with a debug log; that is a best-effort policy, not an
// error.
func (c *Client) DailyDevTasks(date time.Time) ([]models.DevTask, error) {
	root, err := c.open(dailyPath(date), nil)
	if err != nil {
		return nil, err
	}
	projects := root.Find("projects")
	if projects == nil {
		return nil, nil
	}
	var tasks []models.DevTask
	for _, proj := range projects.ChildrenNamed("project") {
		// direct children only: the nested tasks carry name/id too
		nameEl := firstChild(proj, "name")
		idEl := firstChild(proj, "id")
		if nameEl == nil || idEl == nil {
			continue
		}
		projectName := nameEl.Value()
		var dev *models.DevTask
		for _, task := range proj.FindAll("task") {
			taskName := task.Find("name")
			taskID := task.Find("id")
			if taskName == nil || taskID == nil {
				continue
			}
			if strings.HasPrefix(taskName.Value(), devTaskPrefix) {
				dev = &models.DevTask{
					ProjectID:   idEl.Value(),
					ProjectName: projectName,
					TaskID:      taskID.Value(),
					TaskName:    taskName.Value(),
				}
				break
			}
		}
		if dev == nil {
			logging.Debug("no task starting with prefix found in project",
				"prefix", devTaskPrefix,
				"project", projectName)
			continue
		}
		tasks = append(tasks, *dev)
	}
	return tasks, nil
}

// People returns all known Harvest identities.
func (c *Client) People() ([]models.HarvestUser, error) {
	root, err := c.open("/people", nil)
	if err != nil {
		return nil, err
	}
	var users []models.HarvestUser
	for _, el := range root.FindAll("user") {
		u, err := parseUser(el)
		if err != nil {
			return nil, &RemoteError{URL: c.apiURL, Err: err}
		}
		users = append(users, u)
	}
	return users, nil
}

// Projects returns all Harvest projects.
func (c *Client) Projects() ([]models.Project, error) {
	root, err := c.open("/projects", nil)
	if err != nil {
		return nil, err
	}
	var projects []models.Project
	for _, el := range root.FindAll("project") {
		p, err := parseProject(el)
		if err != nil {
			return nil, &RemoteError{URL: c.apiURL, Err: err}
		}
		projects = append(projects, p)
	}
	return projects, nil
}

// AddDaily submits one timesheet entry. When ofUser is non-zero the
// request is scoped to that identity, which requires admin credentials
// in Harvest. It returns the created day entry.
func (c *Client) AddDaily(entry EntryRequest, ofUser int) (models.DayEntry, error) {
	body, err := xml.Marshal(entry)
	if err != nil {
		return models.DayEntry{}, fmt.Errorf("failed to serialize entry: %w", err)
	}
	path := "/daily/add"
	if ofUser != 0 {
		path += "?of_user=" + strconv.Itoa(ofUser)
	}
	root, err := c.open(path, body)
	if err != nil {
		return models.DayEntry{}, err
	}
	// Harvest echoes the created entry, sometimes as the document root.
	created := root
	if root.XMLName.Local != "day_entry" {
		nested := root.Find("day_entry")
		if nested == nil {
			return models.DayEntry{}, nil
		}
		created = nested
	}
	d, err := parseDayEntry(created)
	if err != nil {
		return models.DayEntry{}, &RemoteError{URL: c.apiURL, Err: err}
	}
	return d, nil
}
