package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/nestrack/nestrack"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const drumsSession = `tracks:
  - name: Drums
    index: 0
    group: true
    gain: 0.8
    children:
      - name: Kick
        index: 0
        gain: 1
        clips:
          - path: kick.raw
            start: 0
            name: Kick
            active: true
  - name: Bass
    index: 1
    gain: 0.5
    pan: -0.5
    mute: true
`

func writeSession(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "session.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func runCmd(t *testing.T, cmd *cobra.Command, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)
	err = cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestPrintTree(t *testing.T) {
	kick := nestrack.NewTrack("Kick")
	kick.Clips = []nestrack.Clip{{Name: "K", Start: 10}, {Name: "K2", Start: 200}}
	kick.Plugins = []nestrack.PluginSlot{{Identifier: "eq"}, {Identifier: "comp", Bypassed: true}}
	drums := nestrack.NewGroup("Drums")
	drums.Solo = true
	drums.Children = []*nestrack.Node{kick}
	bass := nestrack.NewTrack("Bass")
	bass.Gain = 0.5
	bass.Pan = 0.25

	var out bytes.Buffer
	require.NoError(t, printTree(&out, []*nestrack.Node{drums, bass}))
	assert.Equal(t, `0 Group "Drums" gain=1.00 pan=+0.00 solo
  0.0 Track "Kick" gain=1.00 pan=+0.00 clips=[K@10, K2@200] plugins=[eq, comp (bypassed)]
1 Track "Bass" gain=0.50 pan=+0.25
`, out.String())

	out.Reset()
	require.NoError(t, printTree(&out, nil))
	assert.Empty(t, out.String())
}

func TestTreeCmd(t *testing.T) {
	path := writeSession(t, drumsSession)
	stdout, stderr, err := runCmd(t, newTreeCmd(), path)
	require.NoError(t, err)
	assert.Equal(t, `0 Group "Drums" gain=0.80 pan=+0.00
  0.0 Track "Kick" gain=1.00 pan=+0.00 clips=[Kick@0]
1 Track "Bass" gain=0.50 pan=-0.50 mute
`, stdout)
	assert.Contains(t, stderr, "kick.raw", "missing clip file is reported")

	_, _, err = runCmd(t, newTreeCmd())
	assert.Error(t, err)
}

func TestRegroupCmd(t *testing.T) {
	path := writeSession(t, drumsSession)
	output := filepath.Join(t.TempDir(), "out.yml")
	_, _, err := runCmd(t, newRegroupCmd(), path, "1", "0", "--output", output)
	require.NoError(t, err)

	stdout, _, err := runCmd(t, newTreeCmd(), output)
	require.NoError(t, err)
	assert.Equal(t, `0 Group "Drums" gain=0.80 pan=+0.00
  0.0 Track "Kick" gain=1.00 pan=+0.00 clips=[Kick@0]
  0.1 Track "Bass" gain=0.50 pan=-0.50 mute
`, stdout)

	_, _, err = runCmd(t, newRegroupCmd(), path, "0", "0.0")
	assert.Error(t, err)
	_, _, err = runCmd(t, newRegroupCmd(), path, "x", "0")
	assert.Error(t, err)
}

func TestReorderCmd(t *testing.T) {
	path := writeSession(t, `tracks:
  - {name: A, index: 0, gain: 1}
  - {name: B, index: 1, gain: 1}
  - {name: C, index: 2, gain: 1}
  - {name: G, index: 3, gain: 1, group: true}
`)
	_, _, err := runCmd(t, newReorderCmd(), path, "2", "0")
	require.NoError(t, err)
	stdout, _, err := runCmd(t, newTreeCmd(), path)
	require.NoError(t, err)
	assert.Equal(t, `0 Track "C" gain=1.00 pan=+0.00
1 Track "A" gain=1.00 pan=+0.00
2 Track "B" gain=1.00 pan=+0.00
3 Group "G" gain=1.00 pan=+0.00
`, stdout)

	_, _, err = runCmd(t, newReorderCmd(), path, "0", "3.0")
	require.NoError(t, err)
	stdout, _, err = runCmd(t, newTreeCmd(), path)
	require.NoError(t, err)
	assert.Equal(t, `0 Track "A" gain=1.00 pan=+0.00
1 Track "B" gain=1.00 pan=+0.00
2 Group "G" gain=1.00 pan=+0.00
  2.0 Track "C" gain=1.00 pan=+0.00
`, stdout)
}
