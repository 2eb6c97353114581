package browser

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"business-scraper/utils"
)

const searchForm = `<html><body>
<form id="search" action="/results" method="%s">
  <input type="hidden" name="token" value="abc">
  <input id="what" name="what" type="text">
  <input id="where" name="where" type="text">
  <input type="checkbox" name="open" value="1">
  <button id="go" type="submit" name="action" value="search">Go</button>
</form>
<a id="about" href="/about">About</a>
</body></html>`

func newSearchServer(t *testing.T, method string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, searchForm, method)
	})
	mux.HandleFunc("/results", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		fmt.Fprintf(w, `<html><body><p id="echo">%s|%s|%s|%s|%s</p><p id="method">%s</p></body></html>`,
			r.Form.Get("what"), r.Form.Get("where"), r.Form.Get("token"),
			r.Form.Get("action"), r.Form.Get("open"), r.Method)
	})
	mux.HandleFunc("/about", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><h1>About us</h1></body></html>`)
	})
	mux.HandleFunc("/missing", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestPage() *StaticPage {
	return NewStaticPage(StaticOptions{UserAgent: "test-agent", Timeout: 5 * time.Second}, utils.NewDiscardLogger())
}

func TestStaticFormSubmit(t *testing.T) {
	for _, method := range []string{"get", "post"} {
		t.Run(method, func(t *testing.T) {
			srv := newSearchServer(t, method)
			ctx := context.Background()
			page := newTestPage()

			if err := page.Navigate(ctx, srv.URL+"/", WaitNetworkIdle, 0); err != nil {
				t.Fatalf("Navigate: %v", err)
			}
			if err := page.Fill(ctx, "#what", "Gasthaus"); err != nil {
				t.Fatalf("Fill what: %v", err)
			}
			if err := page.Fill(ctx, "#where", "Graz"); err != nil {
				t.Fatalf("Fill where: %v", err)
			}
			if err := page.Click(ctx, "#go"); err != nil {
				t.Fatalf("Click: %v", err)
			}

			el, err := page.QuerySelector(ctx, "#echo")
			if err != nil || el == nil {
				t.Fatalf("echo element missing: %v", err)
			}
			if want := "Gasthaus|Graz|abc|search|"; el.Text != want {
				t.Errorf("submitted form = %q, want %q", el.Text, want)
			}
			m, _ := page.QuerySelector(ctx, "#method")
			if !strings.EqualFold(m.Text, method) {
				t.Errorf("method = %q, want %q", m.Text, method)
			}
			if !strings.Contains(page.URL(), "/results") {
				t.Errorf("URL() = %q, want results page", page.URL())
			}
		})
	}
}

func TestStaticClickFollowsLink(t *testing.T) {
	srv := newSearchServer(t, "get")
	ctx := context.Background()
	page := newTestPage()

	if err := page.Navigate(ctx, srv.URL+"/", WaitLoad, 0); err != nil {
		t.Fatalf("Navigate: %v", err)
	}
	link, err := page.QuerySelector(ctx, "#about")
	if err != nil {
		t.Fatal(err)
	}
	if href, _ := link.Attr("href"); href != srv.URL+"/about" {
		t.Errorf("href = %q, want absolute %q", href, srv.URL+"/about")
	}
	if err := page.Click(ctx, "#about"); err != nil {
		t.Fatalf("Click: %v", err)
	}
	if err := page.WaitForSelector(ctx, "h1", time.Second); err != nil {
		t.Errorf("WaitForSelector after click: %v", err)
	}
}

func TestStaticNavigateErrorStatus(t *testing.T) {
	srv := newSearchServer(t, "get")
	page := newTestPage()

	if err := page.Navigate(context.Background(), srv.URL+"/missing", WaitLoad, 0); err == nil {
		t.Error("expected error for 404 response")
	}
}

func TestStaticQuerySelector(t *testing.T) {
	ctx := context.Background()
	page := newTestPage()
	if err := page.SetContent("https://example.com/dir/", `<ul><li class="r">one</li><li class="r">two</li></ul>`); err != nil {
		t.Fatal(err)
	}

	all, err := page.QuerySelectorAll(ctx, "li.r")
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 || all[0].Text != "one" || all[1].Text != "two" {
		t.Errorf("QuerySelectorAll returned %+v", all)
	}

	none, err := page.QuerySelector(ctx, ".absent")
	if err != nil || none != nil {
		t.Errorf("absent selector: el=%v err=%v, want nil, nil", none, err)
	}

	if _, err := page.QuerySelector(ctx, "li[["); err == nil {
		t.Error("expected error for malformed selector")
	}

	if err := page.WaitForSelector(ctx, ".absent", time.Millisecond); !errors.Is(err, ErrElementNotFound) {
		t.Errorf("WaitForSelector err = %v, want ErrElementNotFound", err)
	}
}

func TestStaticUnsupportedOperations(t *testing.T) {
	ctx := context.Background()
	page := newTestPage()
	_ = page.SetContent("https://example.com/", `<p>hi</p>`)

	if err := page.EvaluateScript(ctx, "() => 1", nil, nil); !errors.Is(err, ErrScriptUnsupported) {
		t.Errorf("EvaluateScript err = %v", err)
	}
	if err := page.Screenshot(ctx, "x.png"); !errors.Is(err, ErrScreenshotUnsupported) {
		t.Errorf("Screenshot err = %v", err)
	}

	content, err := page.Content(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(content, "<p>hi</p>") {
		t.Errorf("Content() = %q", content)
	}
}
