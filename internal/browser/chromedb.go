package browser

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"quizharvester/logger"
	"quizharvester/services/cache"
)

// ChromeDBSession drives a page through a ChromeDB (browserless-compatible)
// service. Every primitive POSTs a puppeteer function to the /function
// endpoint; the service keeps the page bound to context.sessionId between
// calls, so one ChromeDBSession corresponds to one remote page.
type ChromeDBSession struct {
	addr      string
	sessionID string
	client    *http.Client

	// Fetch block cache: when the site rate-limits us, further navigations
	// are refused for BlockTime.
	cacheSvc  cache.CacheService
	blockKey  string
	blockTime time.Duration

	navTimeout time.Duration
	closed     bool
}

// ChromeDBConfig configures a ChromeDB session factory.
type ChromeDBConfig struct {
	Addr        string
	CacheSvc    cache.CacheService
	BlockKey    string
	BlockTime   time.Duration
	NavTimeout  time.Duration
	HTTPTimeout time.Duration
}

// ChromeDBFactory creates isolated ChromeDB sessions, one per quiz attempt.
type ChromeDBFactory struct {
	cfg ChromeDBConfig
}

// NewChromeDBFactory creates a session factory and probes the service once so
// a dead ChromeDB shows up at startup rather than on the first quiz.
func NewChromeDBFactory(cfg ChromeDBConfig) *ChromeDBFactory {
	if cfg.HTTPTimeout == 0 {
		cfg.HTTPTimeout = 90 * time.Second
	}
	if cfg.NavTimeout == 0 {
		cfg.NavTimeout = 45 * time.Second
	}
	if cfg.BlockTime == 0 {
		cfg.BlockTime = 500 * time.Second
	}

	probe := &http.Client{Timeout: 5 * time.Second}
	resp, err := probe.Get(cfg.Addr)
	if err != nil {
		logger.ForBrowser().Warn().Err(err).Str("addr", cfg.Addr).Msg("ChromeDB connection check failed")
	} else {
		logger.ForBrowser().Info().Str("addr", cfg.Addr).Int("status", resp.StatusCode).Msg("ChromeDB connection successful")
		resp.Body.Close()
	}

	return &ChromeDBFactory{cfg: cfg}
}

// NewSession creates a fresh session with its own remote page.
func (f *ChromeDBFactory) NewSession() Session {
	return &ChromeDBSession{
		addr:       f.cfg.Addr,
		sessionID:  newSessionID(),
		client:     &http.Client{Timeout: f.cfg.HTTPTimeout},
		cacheSvc:   f.cfg.CacheSvc,
		blockKey:   f.cfg.BlockKey,
		blockTime:  f.cfg.BlockTime,
		navTimeout: f.cfg.NavTimeout,
	}
}

func newSessionID() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("s%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(b)
}

const navigateScript = `module.exports = async ({ page, context }) => {
	await page.setViewport({ width: 1280, height: 800 });
	await page.setUserAgent(context.userAgent);
	try {
		const response = await page.goto(context.url, { waitUntil: 'domcontentloaded', timeout: context.timeout });
		if (!response) {
			return { error: 'no response from page' };
		}
		if (response.status() >= 400) {
			return { error: 'status ' + response.status(), status: response.status() };
		}
		return { ok: true, url: page.url(), status: response.status() };
	} catch (e) {
		return { error: e.message };
	}
}`

const contentScript = `module.exports = async ({ page, context }) => {
	return { value: await page.content() };
}`

const innerTextScript = `module.exports = async ({ page, context }) => {
	return { value: await page.evaluate(() => document.body ? document.body.innerText : '') };
}`

const urlScript = `module.exports = async ({ page, context }) => {
	return { value: page.url() };
}`

const countScript = `module.exports = async ({ page, context }) => {
	const els = await page.$$(context.selector);
	return { value: els.length };
}`

const clickScript = `module.exports = async ({ page, context }) => {
	const els = await page.$$(context.selector);
	if (context.index >= els.length) return { found: false };
	try {
		await els[context.index].click();
		return { found: true };
	} catch (e) {
		return { found: true, error: e.message };
	}
}`

const checkedScript = `module.exports = async ({ page, context }) => {
	const state = await page.evaluate((sel, idx) => {
		const els = document.querySelectorAll(sel);
		if (idx >= els.length) return null;
		return !!els[idx].checked;
	}, context.selector, context.index);
	if (state === null) return { error: 'element not found' };
	return { value: state };
}`

const scrollScript = `module.exports = async ({ page, context }) => {
	await page.evaluate((sel, idx) => {
		const els = document.querySelectorAll(sel);
		if (idx < els.length) els[idx].scrollIntoView({ block: 'center' });
	}, context.selector, context.index);
	return { ok: true };
}`

const revealScript = `module.exports = async ({ page, context }) => {
	await page.evaluate((sel, idx) => {
		const els = document.querySelectorAll(sel);
		if (idx >= els.length) return;
		let el = els[idx];
		for (let depth = 0; el && depth < 3; depth++) {
			el.style.display = '';
			el.style.visibility = 'visible';
			el.style.opacity = '1';
			el = el.parentElement;
		}
	}, context.selector, context.index);
	return { ok: true };
}`

const forceCheckScript = `module.exports = async ({ page, context }) => {
	const done = await page.evaluate((sel, idx) => {
		const els = document.querySelectorAll(sel);
		if (idx >= els.length) return false;
		const el = els[idx];
		el.checked = true;
		el.dispatchEvent(new Event('change', { bubbles: true }));
		el.dispatchEvent(new Event('input', { bubbles: true }));
		return true;
	}, context.selector, context.index);
	if (!done) return { error: 'element not found' };
	return { ok: true };
}`

const networkIdleScript = `module.exports = async ({ page, context }) => {
	try {
		await page.waitForNetworkIdle({ timeout: context.timeout });
		return { ok: true };
	} catch (e) {
		return { error: e.message };
	}
}`

const closeScript = `module.exports = async ({ page, context }) => {
	await page.close();
	return { ok: true };
}`

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/112.0.0.0 Safari/537.36"

// Navigate loads url in the remote page.
func (s *ChromeDBSession) Navigate(ctx context.Context, url string) error {
	// Refuse to navigate while the block key is live
	if s.cacheSvc != nil && s.blockKey != "" {
		if _, err := s.cacheSvc.Get(s.blockKey); err == nil {
			return fmt.Errorf("%s: fetches blocked for %ds: %w", s.blockKey, int(s.blockTime/time.Second), ErrDriver)
		}
	}

	res, err := s.post(ctx, navigateScript, map[string]interface{}{
		"url":       url,
		"timeout":   s.navTimeout.Milliseconds(),
		"userAgent": defaultUserAgent,
	})
	if err != nil {
		return err
	}
	if errMsg := res.Get("error").String(); errMsg != "" {
		if res.Get("status").Int() == http.StatusTooManyRequests {
			s.setBlock()
			return fmt.Errorf("navigate %s: rate limited: %w", url, ErrDriver)
		}
		return classifyScriptError("navigate "+url, errMsg)
	}
	return nil
}

// Content returns the rendered HTML of the current page.
func (s *ChromeDBSession) Content(ctx context.Context) (string, error) {
	res, err := s.post(ctx, contentScript, nil)
	if err != nil {
		return "", err
	}
	html := pluckHTML(res)
	if html == "" {
		return "", fmt.Errorf("empty page content: %w", ErrDriver)
	}
	return html, nil
}

// InnerText returns the visible text of the page body.
func (s *ChromeDBSession) InnerText(ctx context.Context) (string, error) {
	res, err := s.post(ctx, innerTextScript, nil)
	if err != nil {
		return "", err
	}
	return res.Get("value").String(), nil
}

// URL returns the current page URL.
func (s *ChromeDBSession) URL(ctx context.Context) (string, error) {
	res, err := s.post(ctx, urlScript, nil)
	if err != nil {
		return "", err
	}
	return res.Get("value").String(), nil
}

// Count returns the number of elements matching selector.
func (s *ChromeDBSession) Count(ctx context.Context, selector string) (int, error) {
	res, err := s.post(ctx, countScript, map[string]interface{}{"selector": selector})
	if err != nil {
		return 0, err
	}
	return int(res.Get("value").Int()), nil
}

// Click clicks the index-th element matching selector.
func (s *ChromeDBSession) Click(ctx context.Context, selector string, index int) (bool, error) {
	res, err := s.post(ctx, clickScript, map[string]interface{}{"selector": selector, "index": index})
	if err != nil {
		return false, err
	}
	if !res.Get("found").Bool() {
		return false, nil
	}
	if errMsg := res.Get("error").String(); errMsg != "" {
		return true, classifyScriptError("click "+selector, errMsg)
	}
	return true, nil
}

// Checked reports the checked state of the index-th matching element.
func (s *ChromeDBSession) Checked(ctx context.Context, selector string, index int) (bool, error) {
	res, err := s.post(ctx, checkedScript, map[string]interface{}{"selector": selector, "index": index})
	if err != nil {
		return false, err
	}
	if errMsg := res.Get("error").String(); errMsg != "" {
		return false, classifyScriptError("checked "+selector, errMsg)
	}
	return res.Get("value").Bool(), nil
}

// ScrollIntoView scrolls the index-th matching element into view.
func (s *ChromeDBSession) ScrollIntoView(ctx context.Context, selector string, index int) error {
	_, err := s.post(ctx, scrollScript, map[string]interface{}{"selector": selector, "index": index})
	return err
}

// Reveal clears hiding styles on the element and up to two ancestors.
func (s *ChromeDBSession) Reveal(ctx context.Context, selector string, index int) error {
	_, err := s.post(ctx, revealScript, map[string]interface{}{"selector": selector, "index": index})
	return err
}

// ForceCheck sets the checked property directly and fires synthetic events.
func (s *ChromeDBSession) ForceCheck(ctx context.Context, selector string, index int) error {
	res, err := s.post(ctx, forceCheckScript, map[string]interface{}{"selector": selector, "index": index})
	if err != nil {
		return err
	}
	if errMsg := res.Get("error").String(); errMsg != "" {
		return classifyScriptError("forceCheck "+selector, errMsg)
	}
	return nil
}

// WaitNetworkIdle waits for the page network to go quiet.
func (s *ChromeDBSession) WaitNetworkIdle(ctx context.Context, timeout time.Duration) error {
	res, err := s.post(ctx, networkIdleScript, map[string]interface{}{"timeout": timeout.Milliseconds()})
	if err != nil {
		return err
	}
	if errMsg := res.Get("error").String(); errMsg != "" {
		return classifyScriptError("waitNetworkIdle", errMsg)
	}
	return nil
}

// Close releases the remote page.
func (s *ChromeDBSession) Close(ctx context.Context) error {
	if s.closed {
		return nil
	}
	s.closed = true
	_, err := s.post(ctx, closeScript, nil)
	return err
}

// post sends one function invocation to the ChromeDB /function endpoint.
func (s *ChromeDBSession) post(ctx context.Context, script string, extra map[string]interface{}) (gjson.Result, error) {
	payload, _ := sjson.Set("{}", "code", script)
	payload, _ = sjson.Set(payload, "context.sessionId", s.sessionID)
	for k, v := range extra {
		payload, _ = sjson.Set(payload, "context."+k, v)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.addr+"/function", bytes.NewBufferString(payload))
	if err != nil {
		return gjson.Result{}, fmt.Errorf("create function request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return gjson.Result{}, fmt.Errorf("function call: %v: %w", err, ErrTimeout)
		}
		return gjson.Result{}, fmt.Errorf("function call: %v: %w", err, ErrDriver)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		s.setBlock()
		return gjson.Result{}, fmt.Errorf("chromedb rate limited: %w", ErrDriver)
	}
	if resp.StatusCode != http.StatusOK {
		return gjson.Result{}, fmt.Errorf("chromedb returned status %d: %w", resp.StatusCode, ErrDriver)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("read function response: %w", ErrDriver)
	}
	if len(body) == 0 {
		return gjson.Result{}, fmt.Errorf("empty response from chromedb: %w", ErrDriver)
	}

	parsed := gjson.ParseBytes(body)
	// Some deployments wrap the function result in a data envelope
	if data := parsed.Get("data"); data.Exists() && data.IsObject() {
		return data, nil
	}
	return parsed, nil
}

func (s *ChromeDBSession) setBlock() {
	if s.cacheSvc == nil || s.blockKey == "" {
		return
	}
	value := []byte(fmt.Sprintf("%d", int(s.blockTime/time.Second)))
	if err := s.cacheSvc.Set(s.blockKey, value, s.blockTime); err != nil {
		logger.ForBrowser().Warn().Err(err).Msg("failed to set fetch block key")
	}
}

// pluckHTML extracts HTML content from the result regardless of which field
// the deployment used to carry it.
func pluckHTML(res gjson.Result) string {
	for _, path := range []string{"value", "data.content", "content", "data", "result", "html"} {
		if v := res.Get(path); v.Exists() && v.Type == gjson.String {
			str := v.String()
			if strings.Contains(str, "<html") || strings.Contains(str, "<body") {
				return str
			}
		}
	}
	return ""
}

func classifyScriptError(op, msg string) error {
	if strings.Contains(strings.ToLower(msg), "timeout") || strings.Contains(strings.ToLower(msg), "timed out") {
		return fmt.Errorf("%s: %s: %w", op, msg, ErrTimeout)
	}
	return fmt.Errorf("%s: %s: %w", op, msg, ErrDriver)
}
