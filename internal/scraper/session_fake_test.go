package scraper

import (
	"context"
	"fmt"
	"time"

	"quizharvester/internal/browser"
)

// fakeSession is a scripted browser session. Click marks checked state when
// clickChecks is set; ForceCheck marks it when forceChecks is set. After a
// submit control is clicked, Content and InnerText switch to the results
// page.
type fakeSession struct {
	quizHTML    string
	quizText    string
	resultsHTML string
	resultsText string
	currentURL  string

	elements    map[string]int
	clickChecks bool
	forceChecks bool
	navErr      error
	idleErr     error

	clicked      []string
	scrolled     []string
	revealed     []string
	forced       []string
	checkedState map[string]bool
	submitted    bool
	closeCount   int
}

func newFakeSession() *fakeSession {
	return &fakeSession{
		elements:     make(map[string]int),
		checkedState: make(map[string]bool),
		clickChecks:  true,
	}
}

func key(selector string, index int) string { return fmt.Sprintf("%s#%d", selector, index) }

func (f *fakeSession) Navigate(ctx context.Context, url string) error {
	if f.navErr != nil {
		return f.navErr
	}
	f.currentURL = url
	return nil
}

func (f *fakeSession) Content(ctx context.Context) (string, error) {
	if f.submitted {
		return f.resultsHTML, nil
	}
	return f.quizHTML, nil
}

func (f *fakeSession) InnerText(ctx context.Context) (string, error) {
	if f.submitted {
		return f.resultsText, nil
	}
	return f.quizText, nil
}

func (f *fakeSession) URL(ctx context.Context) (string, error) { return f.currentURL, nil }

func (f *fakeSession) Count(ctx context.Context, selector string) (int, error) {
	return f.elements[selector], nil
}

func (f *fakeSession) Click(ctx context.Context, selector string, index int) (bool, error) {
	if f.elements[selector] <= index {
		return false, nil
	}
	f.clicked = append(f.clicked, key(selector, index))
	if f.clickChecks {
		f.checkedState[key(selector, index)] = true
	}
	if isSubmitSelector(selector) {
		f.submitted = true
	}
	return true, nil
}

func isSubmitSelector(selector string) bool {
	for _, s := range submitSelectors {
		if s == selector {
			return true
		}
	}
	return false
}

func (f *fakeSession) Checked(ctx context.Context, selector string, index int) (bool, error) {
	return f.checkedState[key(selector, index)], nil
}

func (f *fakeSession) ScrollIntoView(ctx context.Context, selector string, index int) error {
	f.scrolled = append(f.scrolled, key(selector, index))
	return nil
}

func (f *fakeSession) Reveal(ctx context.Context, selector string, index int) error {
	f.revealed = append(f.revealed, key(selector, index))
	return nil
}

func (f *fakeSession) ForceCheck(ctx context.Context, selector string, index int) error {
	f.forced = append(f.forced, key(selector, index))
	if f.forceChecks {
		f.checkedState[key(selector, index)] = true
	}
	return nil
}

func (f *fakeSession) WaitNetworkIdle(ctx context.Context, timeout time.Duration) error {
	return f.idleErr
}

func (f *fakeSession) Close(ctx context.Context) error {
	f.closeCount++
	return nil
}

type fakeFactory struct{ session *fakeSession }

func (f *fakeFactory) NewSession() browser.Session { return f.session }
