package cgroup

import (
	"context"
	"fmt"
	"os"

	"github.com/coreos/go-systemd/v22/dbus"
	godbus "github.com/godbus/dbus/v5"
)

// EnsureDelegated checks whether the configured cgroup root is
// writable by this process and, if not, requests a delegated transient
// scope from systemd over the system bus so a later Arm call can
// create subdirectories under it. This replaces shelling out to
// `systemd-run --scope -p Delegate=yes` (the approach sketched in the
// pack's cgroup-v2 reference material) with a direct dbus call, since
// the supervisor already needs to stay attached to watch the scope
// rather than re-exec itself.
func EnsureDelegated(root string) error {
	if writable(root) {
		return nil
	}

	conn, err := dbus.NewSystemConnectionContext(context.Background())
	if err != nil {
		return fmt.Errorf("connect to systemd over dbus: %w", err)
	}
	defer conn.Close()

	props := []dbus.Property{
		dbus.PropDescription("judgecore sandbox cgroup delegation"),
		{Name: "Delegate", Value: godbus.MakeVariant(true)},
		{Name: "PIDs", Value: godbus.MakeVariant([]uint32{uint32(os.Getpid())})},
	}

	name := fmt.Sprintf("judgecore-%d.scope", os.Getpid())
	ch := make(chan string, 1)
	if _, err := conn.StartTransientUnitContext(context.Background(), name, "fail", props, ch); err != nil {
		return fmt.Errorf("start transient delegated scope: %w", err)
	}
	if res := <-ch; res != "done" {
		return fmt.Errorf("delegated scope %q did not start cleanly: %s", name, res)
	}
	if !writable(root) {
		return fmt.Errorf("cgroup root %q still not writable after delegation", root)
	}
	return nil
}

func writable(root string) bool {
	probe := root + "/.judgecore-writable-probe"
	f, err := os.OpenFile(probe, os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return false
	}
	f.Close()
	os.Remove(probe)
	return true
}
