package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/btcsuite/btcd/btcec"
	"github.com/mosaicnetworks/rollcall/src/common"
	"github.com/mosaicnetworks/rollcall/src/config"
	"github.com/mosaicnetworks/rollcall/src/epoch"
	"github.com/mosaicnetworks/rollcall/src/peers"
	"github.com/mosaicnetworks/rollcall/src/registry"
	"github.com/mosaicnetworks/rollcall/src/service"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func testDescriptors(n int) []peers.RawDescriptor {
	res := make([]peers.RawDescriptor, n)
	for i := 0; i < n; i++ {
		seed := make([]byte, 32)
		seed[31] = byte(i + 1)
		_, pub := btcec.PrivKeyFromBytes(btcec.S256(), seed)

		res[i] = peers.RawDescriptor{
			Index:           uint64(i),
			WalletPublicKey: pub.SerializeCompressed(),
			SocketAddr:      fmt.Sprintf("10.0.0.%d:7470", i+1),
			KeyHash:         uint64(100 + i),
			Version:         "1.4.2",
			RealmID:         1,
		}
	}
	return res
}

// testEnv writes a registry with four current validators and a next roster
// that drops the first one and adds a fifth.
func testEnv(t *testing.T, state epoch.NetworkEpochState) (*config.Config, []peers.RawDescriptor, func()) {
	dir, err := ioutil.TempDir("", "rollcall")
	if err != nil {
		t.Fatalf("err: %v", err)
	}

	conf := config.NewTestConfig(t, common.TestLogLevel)
	conf.SetDataDir(dir)
	conf.RegistryDir = filepath.Join(dir, config.DefaultRegistryDir)
	conf.DatabaseDir = filepath.Join(dir, config.DefaultBadgerFile)

	descs := testDescriptors(5)
	source := registry.NewJSONSource(conf.RegistryDir)
	if err := source.WriteValidators(descs[:4], false); err != nil {
		t.Fatalf("err: %v", err)
	}
	if err := source.WriteValidators(descs[1:], true); err != nil {
		t.Fatalf("err: %v", err)
	}
	if err := source.WriteEpoch(4, state); err != nil {
		t.Fatalf("err: %v", err)
	}

	return conf, descs, func() { os.RemoveAll(dir) }
}

func TestInspect(t *testing.T) {
	conf, _, cleanup := testEnv(t, epoch.NextValidatorSetLocked)
	defer cleanup()

	var out bytes.Buffer
	if err := inspect(context.Background(), conf, false, &out); err != nil {
		t.Fatalf("err: %v", err)
	}

	res := out.String()
	for _, s := range []string{"NextValidatorSetLocked", "4 peers (4 active)", "10.0.0.1:7470", "Exiting", "Survivor"} {
		if !strings.Contains(res, s) {
			t.Fatalf("inspect output should contain %q:\n%s", s, res)
		}
	}
	if strings.Contains(res, "10.0.0.5:7470") {
		t.Fatalf("current roster should not list the entering peer:\n%s", res)
	}
}

func TestLeader(t *testing.T) {
	conf, descs, cleanup := testEnv(t, epoch.Active)
	defer cleanup()

	key := []byte("block-1234")

	expectedSet, err := registry.Ingest(descs[:4], peers.DefaultSortKey, nil)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	expected, err := expectedSet.ActivePeers().LeaderForActivePeers(key)
	if err != nil {
		t.Fatalf("err: %v", err)
	}

	var out bytes.Buffer
	if err := leader(context.Background(), conf, false, key, "", &out); err != nil {
		t.Fatalf("err: %v", err)
	}
	if !strings.HasPrefix(out.String(), expected.NetAddr) {
		t.Fatalf("expected leader %s, got %s", expected.NetAddr, out.String())
	}

	out.Reset()
	if err := leader(context.Background(), conf, false, key, expected.NetAddr, &out); err != nil {
		t.Fatalf("err: %v", err)
	}
	if strings.TrimSpace(out.String()) != "true" {
		t.Fatalf("%s should be reported as leader, got %s", expected.NetAddr, out.String())
	}

	out.Reset()
	if err := leader(context.Background(), conf, false, key, "192.168.1.1:7470", &out); err != nil {
		t.Fatalf("err: %v", err)
	}
	if strings.TrimSpace(out.String()) != "false" {
		t.Fatalf("unknown address should not be leader, got %s", out.String())
	}
}

func TestLeaderSkipsKickedPeers(t *testing.T) {
	conf, descs, cleanup := testEnv(t, epoch.NextValidatorSetLocked)
	defer cleanup()

	descs[0].IsKicked = true
	descs[2].IsKicked = true
	source := registry.NewJSONSource(conf.RegistryDir)
	if err := source.WriteValidators(descs[:4], false); err != nil {
		t.Fatalf("err: %v", err)
	}
	if err := source.WriteValidators(descs[1:], true); err != nil {
		t.Fatalf("err: %v", err)
	}

	kicked := map[string]bool{
		descs[0].SocketAddr: true,
		descs[2].SocketAddr: true,
	}

	for _, next := range []bool{false, true} {
		roster := descs[:4]
		if next {
			roster = descs[1:]
		}
		set, err := registry.Ingest(roster, peers.DefaultSortKey, nil)
		if err != nil {
			t.Fatalf("err: %v", err)
		}
		active := set.ActivePeers()

		for i := 0; i < 20; i++ {
			key := []byte(fmt.Sprintf("k%d", i))

			expected, err := active.LeaderForActivePeers(key)
			if err != nil {
				t.Fatalf("err: %v", err)
			}

			var out bytes.Buffer
			if err := leader(context.Background(), conf, next, key, "", &out); err != nil {
				t.Fatalf("err: %v", err)
			}
			addr := strings.SplitN(out.String(), "\t", 2)[0]
			if kicked[addr] {
				t.Fatalf("next=%t key %s elected kicked peer %s", next, key, addr)
			}
			if addr != expected.NetAddr {
				t.Fatalf("next=%t key %s: expected leader %s, got %s", next, key, expected.NetAddr, addr)
			}

			out.Reset()
			if err := leader(context.Background(), conf, next, key, descs[2].SocketAddr, &out); err != nil {
				t.Fatalf("err: %v", err)
			}
			if strings.TrimSpace(out.String()) != "false" {
				t.Fatalf("next=%t key %s: kicked peer reported as leader", next, key)
			}
		}
	}
}

func TestLeaderHashKey(t *testing.T) {
	raw, err := leaderHashKey("0xCAFE", false)
	if err != nil || string(raw) != "0xCAFE" {
		t.Fatalf("raw key should be used as is, got %q %v", raw, err)
	}

	decoded, err := leaderHashKey("0xCAFE", true)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if !bytes.Equal(decoded, []byte{0xca, 0xfe}) {
		t.Fatalf("hex key should be decoded, got %x", decoded)
	}

	if _, err := leaderHashKey("zz", true); err == nil {
		t.Fatalf("invalid hex should be rejected")
	}
}

func TestDiff(t *testing.T) {
	conf, _, cleanup := testEnv(t, epoch.ReadyForNextEpoch)
	defer cleanup()

	var out bytes.Buffer
	if err := diff(context.Background(), conf, &out); err != nil {
		t.Fatalf("err: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 5 {
		t.Fatalf("expected 5 lines, got %d:\n%s", len(lines), out.String())
	}
	if !strings.HasPrefix(lines[0], "- 10.0.0.1:7470") {
		t.Fatalf("first validator should be exiting, got %s", lines[0])
	}
	if !strings.HasPrefix(lines[4], "+ 10.0.0.5:7470") {
		t.Fatalf("fifth validator should be entering, got %s", lines[4])
	}
	for _, l := range lines[1:4] {
		if !strings.HasPrefix(l, "= ") {
			t.Fatalf("middle validators should survive, got %s", l)
		}
	}
}

func TestSnapshotStore(t *testing.T) {
	conf, descs, cleanup := testEnv(t, epoch.Active)
	defer cleanup()
	conf.Store = true

	var out bytes.Buffer
	if err := snapshot(context.Background(), conf, -1, false, &out); err != nil {
		t.Fatalf("err: %v", err)
	}
	if !strings.Contains(out.String(), "Changed:    true") {
		t.Fatalf("first snapshot should be a change:\n%s", out.String())
	}

	// Same registry, reopened store.
	out.Reset()
	if err := snapshot(context.Background(), conf, -1, false, &out); err != nil {
		t.Fatalf("err: %v", err)
	}
	if !strings.Contains(out.String(), "Changed:    false") {
		t.Fatalf("unchanged registry should not be a change:\n%s", out.String())
	}

	source := registry.NewJSONSource(conf.RegistryDir)
	if err := source.WriteValidators(descs[1:], false); err != nil {
		t.Fatalf("err: %v", err)
	}
	if err := source.WriteEpoch(5, epoch.Active); err != nil {
		t.Fatalf("err: %v", err)
	}

	out.Reset()
	if err := snapshot(context.Background(), conf, -1, false, &out); err != nil {
		t.Fatalf("err: %v", err)
	}
	if !strings.Contains(out.String(), "Stored:     [4 5]") {
		t.Fatalf("both epochs should be stored:\n%s", out.String())
	}

	out.Reset()
	if err := snapshot(context.Background(), conf, 4, true, &out); err != nil {
		t.Fatalf("err: %v", err)
	}

	decoded := new(epoch.Snapshot)
	if err := decoded.Unmarshal(bytes.TrimSpace(out.Bytes())); err != nil {
		t.Fatalf("err: %v", err)
	}
	if decoded.Epoch != 4 || decoded.Current.Len() != 4 {
		t.Fatalf("epoch 4 snapshot should have 4 peers, got epoch %d with %d", decoded.Epoch, decoded.Current.Len())
	}
}

func TestEpochCmd(t *testing.T) {
	conf, _, cleanup := testEnv(t, epoch.Active)
	defer cleanup()

	var out bytes.Buffer
	if err := epochCmd(context.Background(), conf, -1, "", &out); err != nil {
		t.Fatalf("err: %v", err)
	}
	if strings.TrimSpace(out.String()) != "4 Active" {
		t.Fatalf("unexpected epoch output %q", out.String())
	}

	out.Reset()
	if err := epochCmd(context.Background(), conf, -1, "paused", &out); err != nil {
		t.Fatalf("err: %v", err)
	}
	if strings.TrimSpace(out.String()) != "4 Paused" {
		t.Fatalf("state should be updated, got %q", out.String())
	}

	if err := epochCmd(context.Background(), conf, 6, "Sleeping", &out); err == nil {
		t.Fatalf("unknown state name should be rejected")
	}
}

func TestKeygen(t *testing.T) {
	conf, _, cleanup := testEnv(t, epoch.Active)
	defer cleanup()

	var out bytes.Buffer
	if err := keygen(context.Background(), conf, false, true, "10.0.0.9:7470", &out); err != nil {
		t.Fatalf("err: %v", err)
	}

	var desc peers.RawDescriptor
	if err := json.Unmarshal(out.Bytes(), &desc); err != nil {
		t.Fatalf("err: %v", err)
	}
	if desc.Index != 4 || desc.SocketAddr != "10.0.0.9:7470" {
		t.Fatalf("unexpected descriptor %+v", desc)
	}

	snap, err := loadSnapshot(context.Background(), conf)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	p, err := snap.Current.PeerAtAddress("10.0.0.9:7470")
	if err != nil {
		t.Fatalf("registered validator should be in the roster: %v", err)
	}
	if p.KeyHash != desc.KeyHash {
		t.Fatalf("key hash mismatch")
	}

	if err := keygen(context.Background(), conf, false, false, "10.0.0.9:7470", &out); err == nil {
		t.Fatalf("existing key should not be overwritten")
	}
}

func TestServe(t *testing.T) {
	conf, _, cleanup := testEnv(t, epoch.Active)
	defer cleanup()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	addr := l.Addr().String()
	l.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- serve(ctx, conf, addr, 50*time.Millisecond)
	}()

	var stats service.Stats
	deadline := time.Now().Add(5 * time.Second)
	for {
		resp, err := http.Get("http://" + addr + "/stats")
		if err == nil {
			err = json.NewDecoder(resp.Body).Decode(&stats)
			resp.Body.Close()
			if err == nil && resp.StatusCode == http.StatusOK {
				break
			}
		}
		if time.Now().After(deadline) {
			cancel()
			t.Fatalf("service did not come up: %v", err)
		}
		time.Sleep(20 * time.Millisecond)
	}

	if stats.Epoch != 4 || stats.Peers != 4 {
		t.Fatalf("unexpected stats %+v", stats)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("serve should stop cleanly: %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatalf("serve did not stop")
	}
}

func TestBindFlagsLoadViper(t *testing.T) {
	dir, err := ioutil.TempDir("", "rollcall")
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	defer os.RemoveAll(dir)

	logFile := filepath.Join(dir, "rollcall.log")
	toml := fmt.Sprintf("sort-key = \"address-asc/v1\"\ncache-size = 7\nlog = \"error\"\nlog-file = %q\n", logFile)
	if err := ioutil.WriteFile(filepath.Join(dir, "rollcall.toml"), []byte(toml), 0644); err != nil {
		t.Fatalf("err: %v", err)
	}

	saved := _config
	defer func() { _config = saved }()
	_config = NewDefaultCLIConfig()

	cmd := &cobra.Command{Use: "test"}
	AddRootFlags(cmd)
	if err := cmd.ParseFlags([]string{"--datadir", dir, "--cache-size", "3"}); err != nil {
		t.Fatalf("err: %v", err)
	}

	if err := bindFlagsLoadViper(cmd, viper.New()); err != nil {
		t.Fatalf("err: %v", err)
	}

	if _config.Rollcall.DataDir != dir {
		t.Fatalf("datadir flag should be applied, got %s", _config.Rollcall.DataDir)
	}
	if _config.Rollcall.SortKey != string(peers.SortKeyAddressV1) {
		t.Fatalf("sort-key should come from the config file, got %s", _config.Rollcall.SortKey)
	}
	if _config.Rollcall.CacheSize != 3 {
		t.Fatalf("explicit flag should win over the config file, got %d", _config.Rollcall.CacheSize)
	}

	logger := _config.Rollcall.Logger()
	if logger.Logger.Level != logrus.ErrorLevel {
		t.Fatalf("log level should come from the config file, got %s", logger.Logger.Level)
	}
	logger.Error("written to the log file")
	if _, err := os.Stat(logFile); err != nil {
		t.Fatalf("log-file from the config file should be used: %v", err)
	}
}
