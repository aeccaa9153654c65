package harvest

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const dailyXML = `<daily>
  <projects>
    <project>
      <id>201</id>
      <name>Widgets</name>
      <tasks>
        <task><id>301</id><name>Design</name></task>
        <task><id>302</id><name>Development</name></task>
        <task><id>303</id><name>Development review</name></task>
      </tasks>
    </project>
    <project>
      <id>202</id>
      <name>Gadgets</name>
      <tasks>
        <task><id>304</id><name>Meetings</name></task>
      </tasks>
    </project>
  </projects>
</daily>`

func TestDailyDevTasks(t *testing.T) {
	var gotPath, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		fmt.Fprint(w, dailyXML)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "ada@example.com", "pw")
	tasks, err := client.DailyDevTasks(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	// Feb 1 is day 32. Gadgets has no Development task and is skipped.
	assert.Equal(t, "/daily/32/2024", gotPath)
	assert.NotEmpty(t, gotAuth, "every request carries basic auth")
	require.Len(t, tasks, 1)
	assert.Equal(t, "Widgets", tasks[0].ProjectName)
	assert.Equal(t, "201", tasks[0].ProjectID)
	assert.Equal(t, "302", tasks[0].TaskID, "first Development-prefixed task wins")
	assert.Equal(t, "Development", tasks[0].TaskName)
}

func TestPeople(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/people", r.URL.Path)
		fmt.Fprint(w, `<users>
			<user><id>11</id><email>ada@example.com</email></user>
			<user><id>12</id><email>bob@example.com</email></user>
		</users>`)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "ada@example.com", "pw")
	users, err := client.People()
	require.NoError(t, err)

	require.Len(t, users, 2)
	assert.Equal(t, 11, users[0].ID)
	assert.Equal(t, "bob@example.com", users[1].Email)
}

func TestAddDaily(t *testing.T) {
	var gotBody []byte
	var gotQuery, gotContentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/daily/add", r.URL.Path)
		gotQuery = r.URL.RawQuery
		gotContentType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		fmt.Fprint(w, `<day_entry>
			<id>900</id>
			<project>Widgets</project>
			<hours>0.5</hours>
			<notes>(101) Fix login</notes>
			<spent_at>2024-01-01</spent_at>
		</day_entry>`)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "admin@example.com", "pw")
	entry := NewEntryRequest("(101) Fix login", "01 Jan, 2024", "0.50", "302", "201")
	created, err := client.AddDaily(entry, 11)
	require.NoError(t, err)

	assert.Equal(t, "of_user=11", gotQuery)
	assert.Equal(t, "application/xml", gotContentType)

	body := string(gotBody)
	assert.Contains(t, body, "<notes>(101) Fix login</notes>")
	assert.Contains(t, body, `<spent_at type="date">01 Jan, 2024</spent_at>`)
	assert.Contains(t, body, "<hours>0.50</hours>")
	assert.Contains(t, body, `<task_id type="integer">302</task_id>`)
	assert.Contains(t, body, `<project_id type="integer">201</project_id>`)

	assert.Equal(t, 900, created.ID)
	assert.Equal(t, 0.5, created.Hours)
}

func TestAddDailyAsConnectedUser(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		fmt.Fprint(w, `<day_entry>
			<id>901</id>
			<project>Widgets</project>
			<hours>1</hours>
			<notes>n</notes>
			<spent_at>2024-01-01</spent_at>
		</day_entry>`)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "ada@example.com", "pw")
	_, err := client.AddDaily(NewEntryRequest("n", "01 Jan, 2024", "1.00", "302", "201"), 0)
	require.NoError(t, err)

	assert.Empty(t, gotQuery, "no of_user param when submitting as the connected identity")
}

func TestRemoteErrorOnBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "ada@example.com", "pw")
	_, err := client.People()
	require.Error(t, err)

	var remoteErr *RemoteError
	require.ErrorAs(t, err, &remoteErr)
}
