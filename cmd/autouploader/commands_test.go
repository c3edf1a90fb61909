package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const (
	testEpisode    = "Show.Name.S2.E09.1080p.WEB-DL.mp4"
	testKey        = "Show.Name.S2.E09.1080p.WEB-DL"
	testRapidgator = "https://rapidgator.net/file/abc123/Show.Name.S2.E09.mp4"
	testNitroflare = "https://nitroflare.com/view/XYZ789/Show.Name.S2.E09.mp4"
	testUploadgig  = "https://uploadgig.com/file/download/777/Show.Name.S2.E09.mp4"
)

func TestPostWaitsForPrimaryHostsThenPublishes(t *testing.T) {
	site, server := newFakeSite(t)
	env := setupCLITestEnv(t, testConfigOptions{wordpressURL: server.URL, requireAll: true})

	out, _, err := runCLI(t, []string{"--link", testRapidgator, "--filename", testEpisode}, env.configPath)
	if err != nil {
		t.Fatalf("first link: %v", err)
	}
	requireContains(t, out, "waiting for nitroflare")
	if creates, _ := site.counts(); creates != 0 {
		t.Fatalf("expected no post while waiting, got %d", creates)
	}

	out, _, err = runCLI(t, []string{"--link", testNitroflare, "--filename", testEpisode}, env.configPath)
	if err != nil {
		t.Fatalf("second link: %v", err)
	}
	requireContains(t, out, "published post 101")
	requireContains(t, out, "Show Name S02E09 1080p")
	if creates, _ := site.counts(); creates != 1 {
		t.Fatalf("expected one post, got %d", creates)
	}
	body := site.content(101)
	requireContains(t, body, testRapidgator)
	requireContains(t, body, testNitroflare)

	out, _, err = runCLI(t, []string{"ledger", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("ledger list: %v", err)
	}
	requireContains(t, out, testKey)
	requireContains(t, out, "101")

	out, _, err = runCLI(t, []string{"pending", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("pending list: %v", err)
	}
	requireContains(t, out, "No pending releases")

	out, _, err = runCLI(t, []string{"history", "--limit", "5"}, env.configPath)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, out, "Posted")
	requireContains(t, out, "Waiting for primary hosts")
}

func TestPostMirrorUpdatesExistingPost(t *testing.T) {
	site, server := newFakeSite(t)
	env := setupCLITestEnv(t, testConfigOptions{wordpressURL: server.URL})

	if _, _, err := runCLI(t, []string{"post", "--link", testRapidgator, "--filename", testEpisode}, env.configPath); err != nil {
		t.Fatalf("publish: %v", err)
	}
	out, _, err := runCLI(t, []string{"post", "--link", testUploadgig, "--filename", testEpisode}, env.configPath)
	if err != nil {
		t.Fatalf("mirror: %v", err)
	}
	requireContains(t, out, "updated post 101")
	creates, updates := site.counts()
	if creates != 1 || updates != 1 {
		t.Fatalf("expected 1 create and 1 update, got %d and %d", creates, updates)
	}
	body := site.content(101)
	requireContains(t, body, testRapidgator)
	requireContains(t, body, testUploadgig)
}

func TestPostRequiresLinkAndFilename(t *testing.T) {
	env := setupCLITestEnv(t, testConfigOptions{wordpressURL: "https://example.test"})

	_, stderr, err := runCLI(t, []string{"--link", testRapidgator}, env.configPath)
	if err == nil {
		t.Fatal("expected usage error for missing filename")
	}
	requireContains(t, err.Error(), "--link and --filename")
	requireContains(t, stderr, "Usage:")

	if _, _, err := runCLI(t, nil, env.configPath); err == nil {
		t.Fatal("expected usage error with no arguments")
	}
}

func TestPostWithoutCredentialsFails(t *testing.T) {
	env := setupCLITestEnv(t, testConfigOptions{})

	_, _, err := runCLI(t, []string{"--link", testRapidgator, "--filename", testEpisode}, env.configPath)
	if err == nil {
		t.Fatal("expected missing credentials error")
	}
	requireContains(t, err.Error(), "wordpress.url")
}

func TestQueueAddListDrain(t *testing.T) {
	site, server := newFakeSite(t)
	env := setupCLITestEnv(t, testConfigOptions{wordpressURL: server.URL})

	out, _, err := runCLI(t, []string{"queue", "add", "--link", testRapidgator, "--filename", testEpisode}, env.configPath)
	if err != nil {
		t.Fatalf("queue add: %v", err)
	}
	requireContains(t, out, "Queued link_")

	if err := os.WriteFile(filepath.Join(env.queueDir, "link_99999999_000000_broken.json"), []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write corrupt item: %v", err)
	}

	out, _, err = runCLI(t, []string{"queue", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("queue list: %v", err)
	}
	requireContains(t, out, testEpisode)
	requireContains(t, out, "(corrupt)")

	out, _, err = runCLI(t, []string{"--process-queue"}, env.configPath)
	if err != nil {
		t.Fatalf("drain: %v", err)
	}
	requireContains(t, out, "1 processed, 0 failed, 1 discarded")
	if creates, _ := site.counts(); creates != 1 {
		t.Fatalf("expected one post from the drain, got %d", creates)
	}

	out, _, err = runCLI(t, []string{"queue", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("queue list after drain: %v", err)
	}
	requireContains(t, out, "Queue is empty")
}

func TestQueueClear(t *testing.T) {
	env := setupCLITestEnv(t, testConfigOptions{})
	for _, link := range []string{testRapidgator, testNitroflare} {
		if _, _, err := runCLI(t, []string{"queue", "add", "--link", link, "--filename", testEpisode}, env.configPath); err != nil {
			t.Fatalf("queue add: %v", err)
		}
	}
	out, _, err := runCLI(t, []string{"queue", "clear"}, env.configPath)
	if err != nil {
		t.Fatalf("queue clear: %v", err)
	}
	requireContains(t, out, "Removed 2 queued item(s)")
}

func TestPendingListAndDrop(t *testing.T) {
	_, server := newFakeSite(t)
	env := setupCLITestEnv(t, testConfigOptions{wordpressURL: server.URL, requireAll: true})

	if _, _, err := runCLI(t, []string{"--link", testRapidgator, "--filename", testEpisode}, env.configPath); err != nil {
		t.Fatalf("post: %v", err)
	}
	out, _, err := runCLI(t, []string{"pending", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("pending list: %v", err)
	}
	requireContains(t, out, testKey)
	requireContains(t, out, "nitroflare")

	out, _, err = runCLI(t, []string{"pending", "drop", testKey}, env.configPath)
	if err != nil {
		t.Fatalf("pending drop: %v", err)
	}
	requireContains(t, out, "Dropped pending links")

	if _, _, err := runCLI(t, []string{"pending", "drop", testKey}, env.configPath); err == nil {
		t.Fatal("expected error dropping an absent release")
	}
}

func TestPendingListFlagsStrandedMirrors(t *testing.T) {
	_, server := newFakeSite(t)
	env := setupCLITestEnv(t, testConfigOptions{wordpressURL: server.URL, requireAll: true})

	for _, link := range []string{testRapidgator, testNitroflare, testUploadgig} {
		if _, _, err := runCLI(t, []string{"--link", link, "--filename", testEpisode}, env.configPath); err != nil {
			t.Fatalf("post %s: %v", link, err)
		}
	}
	out, _, err := runCLI(t, []string{"pending", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("pending list: %v", err)
	}
	requireContains(t, out, testKey)
	requireContains(t, out, "uploadgig")
	requireContains(t, out, "stranded; post 101 exists")
	requireContains(t, out, "1 release(s) were already posted")
}

func TestLedgerForgetUnknownRelease(t *testing.T) {
	env := setupCLITestEnv(t, testConfigOptions{})
	_, _, err := runCLI(t, []string{"ledger", "forget", "Nothing.Here"}, env.configPath)
	if err == nil {
		t.Fatal("expected error for unknown release")
	}
	requireContains(t, err.Error(), "not in the ledger")
}

func TestHostsEditing(t *testing.T) {
	env := setupCLITestEnv(t, testConfigOptions{})

	out, _, err := runCLI(t, []string{"hosts", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("hosts list: %v", err)
	}
	requireContains(t, out, "rapidgator")
	requireContains(t, out, "primary")

	out, _, err = runCLI(t, []string{"hosts", "add-mirror", "ddownload", `ddownload\.com`, "--display", "DDownload"}, env.configPath)
	if err != nil {
		t.Fatalf("add-mirror: %v", err)
	}
	requireContains(t, out, "Added mirror ddownload")

	out, _, err = runCLI(t, []string{"hosts", "detect", "https://ddownload.com/abc"}, env.configPath)
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	requireContains(t, out, "ddownload (DDownload, mirror)")

	if _, _, err := runCLI(t, []string{"hosts", "set-primary", "rapidgator"}, env.configPath); err != nil {
		t.Fatalf("set-primary: %v", err)
	}
	out, _, err = runCLI(t, []string{"hosts", "detect", "https://nitroflare.com/view/1"}, env.configPath)
	if err != nil {
		t.Fatalf("detect demoted: %v", err)
	}
	requireContains(t, out, "nitroflare (Nitroflare, mirror)")

	if _, _, err := runCLI(t, []string{"hosts", "set-primary", "nosuchhost"}, env.configPath); err == nil {
		t.Fatal("expected error promoting a host without a pattern")
	}

	if _, _, err := runCLI(t, []string{"hosts", "remove", "ddownload"}, env.configPath); err != nil {
		t.Fatalf("remove: %v", err)
	}
	out, _, err = runCLI(t, []string{"hosts", "detect", "https://ddownload.com/abc"}, env.configPath)
	if err != nil {
		t.Fatalf("detect removed: %v", err)
	}
	requireContains(t, out, "unrecognized")
}

func TestParseCommand(t *testing.T) {
	out, _, err := runCLI(t, []string{"parse", testEpisode}, "")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	requireContains(t, out, "Show Name S02E09 1080p")
	requireContains(t, out, "tv_episode")

	out, _, err = runCLI(t, []string{"parse", "--json", testEpisode}, "")
	if err != nil {
		t.Fatalf("parse --json: %v", err)
	}
	var view parseView
	if err := json.Unmarshal([]byte(out), &view); err != nil {
		t.Fatalf("decode parse output: %v", err)
	}
	if view.Key != testKey || view.Season != 2 || view.Episode != 9 || view.Quality != "1080p" {
		t.Fatalf("unexpected parse view: %+v", view)
	}
}

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t, testConfigOptions{})

	out, _, err := runCLI(t, []string{"config", "validate"}, env.configPath)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")
	requireContains(t, out, "wordpress.url must be set")

	target := filepath.Join(t.TempDir(), "config.toml")
	out, _, err = runCLI(t, []string{"config", "init", "--path", target}, env.configPath)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	_, _, err = runCLI(t, []string{"config", "init", "--path", target}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "already exists") {
		t.Fatalf("expected existing file error, got %v", err)
	}
}

func TestTestNotifyWithoutTopic(t *testing.T) {
	env := setupCLITestEnv(t, testConfigOptions{})
	out, _, err := runCLI(t, []string{"test-notify"}, env.configPath)
	if err != nil {
		t.Fatalf("test-notify: %v", err)
	}
	requireContains(t, out, "Notifications disabled")
}
