package cli

import (
	"bytes"
	"encoding/json"
	"io/fs"
	"testing"

	"github.com/jakoblorz/ui5lab-combine/internal/copier"
	"github.com/jakoblorz/ui5lab-combine/internal/filesystem"
	"github.com/jakoblorz/ui5lab-combine/internal/workspace"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

const testWorkspaceRoot = "/test-workspace"

type harness struct {
	fs   *filesystem.MockFileSystem
	env  map[string]string
	logs *observer.ObservedLogs
	out  bytes.Buffer
}

func buildWorkspace(t *testing.T, setup func(*workspace.WorkspaceBuilder)) *harness {
	t.Helper()

	wb := workspace.NewWorkspaceBuilder(testWorkspaceRoot)
	wb.AddLibrary("ui5lab-library-simple", "1.0.0",
		"dist/resources/ui5lab/simple/library.js",
		"dist/test-resources/ui5lab/simple/qunit/testsuite.qunit.js")
	wb.AddLibrary("ui5lab-geometry", "0.2.0", "src/ui5lab/geometry/library.js")
	wb.WithTooling("ui5lab-geometry")
	wb.AddLibrary("@openui5/sap.m", "1.60.0", "src/sap/m/library.js")
	wb.AddDeploySources()
	if setup != nil {
		setup(wb)
	}

	return &harness{fs: wb.Build(), env: map[string]string{}}
}

func (h *harness) command(args ...string) *cobra.Command {
	core, logs := observer.New(zapcore.DebugLevel)
	h.logs = logs

	c := &CombineCommand{
		fs: h.fs,
		lookupEnv: func(key string) (string, bool) {
			v, ok := h.env[key]
			return v, ok
		},
		logger: zap.New(core),
	}

	cmd := c.Command()
	cmd.SetOut(&h.out)
	cmd.SetErr(&h.out)
	cmd.SetArgs(args)
	return cmd
}

func (h *harness) read(t *testing.T, rel string) string {
	t.Helper()
	data, err := h.fs.ReadFile(testWorkspaceRoot + "/" + rel)
	require.NoError(t, err)
	return string(data)
}

func TestCombine_Development(t *testing.T) {
	h := buildWorkspace(t, nil)

	require.NoError(t, h.command().Execute())

	require.Equal(t, "ui5lab-library-simple/dist/resources/ui5lab/simple/library.js",
		h.read(t, "webapp/resources/ui5lab/simple/library.js"))
	require.True(t, h.fs.Exists(testWorkspaceRoot+"/webapp/test-resources/ui5lab/simple/qunit/testsuite.qunit.js"))
	require.False(t, h.fs.Exists(testWorkspaceRoot+"/webapp/resources/ui5lab/geometry"))
	require.False(t, h.fs.Exists(testWorkspaceRoot+"/webapp/resources/sap"))
	require.False(t, h.fs.Exists(testWorkspaceRoot+"/deploy"))

	require.Equal(t, 1, h.logs.FilterMessage("Copying browser").Len())
	require.Equal(t, 1, h.logs.FilterMessage("Copying libraries").Len())
	require.Zero(t, h.logs.FilterMessage("Copy files to deploy folder").Len())

	out := h.out.String()
	require.Contains(t, out, "1 copied, 1 skipped-tooling, 2 excluded")
}

func TestCombine_DeployFlag(t *testing.T) {
	for _, flag := range []string{"--deploy", "-d"} {
		t.Run(flag, func(t *testing.T) {
			h := buildWorkspace(t, nil)

			require.NoError(t, h.command(flag).Execute())

			require.Equal(t, "<!-- production CDN bootstrap -->", h.read(t, "deploy/browser/index.html"))
			require.Equal(t, "<!-- development bootstrap -->", h.read(t, "webapp/index.html"))
			require.Equal(t, "ui5lab-geometry/src/ui5lab/geometry/library.js",
				h.read(t, "deploy/browser/resources/ui5lab/geometry/library.js"))
			require.Equal(t, "<!-- homepage -->", h.read(t, "deploy/index.html"))
			require.Equal(t, "# Docs", h.read(t, "deploy/docs/README.md"))
			require.Contains(t, h.out.String(), "deploy tree assembled")
		})
	}
}

func TestCombine_DeployFromEnvironment(t *testing.T) {
	h := buildWorkspace(t, nil)
	h.env["COMBINE_DEPLOY"] = "1"

	require.NoError(t, h.command().Execute())
	require.True(t, h.fs.Exists(testWorkspaceRoot+"/deploy/browser/index.html"))
}

func TestCombine_FlagOverridesEnvironment(t *testing.T) {
	h := buildWorkspace(t, nil)
	h.env["COMBINE_DEPLOY"] = "true"

	require.NoError(t, h.command("--deploy=false").Execute())
	require.False(t, h.fs.Exists(testWorkspaceRoot+"/deploy"))
}

func TestCombine_DeployFailureIsFatal(t *testing.T) {
	h := buildWorkspace(t, nil)
	h.fs.FailOn(testWorkspaceRoot+"/docs", fs.ErrPermission)

	err := h.command("--deploy", "--report", "report.json").Execute()
	require.ErrorIs(t, err, fs.ErrPermission)
	require.Contains(t, err.Error(), "deploy step docs failed")

	require.Contains(t, h.out.String(), "deploy tree not assembled")
	require.False(t, h.fs.Exists(testWorkspaceRoot+"/report.json"))
}

func TestCombine_LibraryFailureIsNotFatal(t *testing.T) {
	h := buildWorkspace(t, func(wb *workspace.WorkspaceBuilder) {
		wb.AddLibrary("ui5lab-later", "1.0.0", "src/ui5lab/later/library.js")
	})
	h.fs.FailOn(testWorkspaceRoot+"/node_modules/ui5lab-library-simple/dist", fs.ErrPermission)

	require.NoError(t, h.command().Execute())

	require.True(t, h.fs.Exists(testWorkspaceRoot+"/webapp/resources/ui5lab/later/library.js"))
	require.Equal(t, 1, h.logs.FilterMessage("An error occurred post-processing library").Len())
	require.Contains(t, h.out.String(), "1 failed")
}

func TestCombine_BrokenLibraryManifestIsNotFatal(t *testing.T) {
	h := buildWorkspace(t, func(wb *workspace.WorkspaceBuilder) {
		wb.AddLibrary("ui5lab-broken", "1.0.0", "src/ui5lab/broken/library.js")
		wb.AddFile("node_modules/ui5lab-broken/package.json", "{ not json")
		wb.AddFile("node_modules/@openui5/sap.m/package.json", "")
		wb.AddLibrary("ui5lab-later", "1.0.0", "src/ui5lab/later/library.js")
	})

	require.NoError(t, h.command().Execute())

	require.True(t, h.fs.Exists(testWorkspaceRoot+"/webapp/resources/ui5lab/simple/library.js"))
	require.True(t, h.fs.Exists(testWorkspaceRoot+"/webapp/resources/ui5lab/broken/library.js"))
	require.True(t, h.fs.Exists(testWorkspaceRoot+"/webapp/resources/ui5lab/later/library.js"))
	require.Equal(t, 1, h.logs.FilterLevelExact(zapcore.WarnLevel).Len())
	require.Contains(t, h.out.String(), "3 copied")
}

func TestCombine_UnreadableLibraryRootIsNotFatal(t *testing.T) {
	h := buildWorkspace(t, func(wb *workspace.WorkspaceBuilder) {
		wb.AddLibrary("ui5lab-locked", "1.0.0", "src/ui5lab/locked/library.js")
		wb.AddLibrary("ui5lab-later", "1.0.0", "src/ui5lab/later/library.js")
	})
	h.fs.FailOn(testWorkspaceRoot+"/node_modules/ui5lab-locked", fs.ErrPermission)

	require.NoError(t, h.command().Execute())

	require.True(t, h.fs.Exists(testWorkspaceRoot+"/webapp/resources/ui5lab/later/library.js"))
	require.Equal(t, 1, h.logs.FilterMessage("An error occurred post-processing library").Len())
	require.Contains(t, h.out.String(), "1 failed")
}

func TestCombine_ConfigFile(t *testing.T) {
	h := buildWorkspace(t, func(wb *workspace.WorkspaceBuilder) {
		wb.AddFile("combine.yaml", "stagingDir: build/browser\nignore:\n  - \"*.qunit.js\"\n")
	})

	require.NoError(t, h.command().Execute())

	require.True(t, h.fs.Exists(testWorkspaceRoot+"/build/browser/resources/ui5lab/simple/library.js"))
	require.False(t, h.fs.Exists(testWorkspaceRoot+"/build/browser/test-resources/ui5lab/simple/qunit/testsuite.qunit.js"))
	require.False(t, h.fs.Exists(testWorkspaceRoot+"/webapp"))
}

func TestCombine_ConfigFromEnvironment(t *testing.T) {
	h := buildWorkspace(t, func(wb *workspace.WorkspaceBuilder) {
		wb.AddFile("config/ci.yaml", "stagingDir: out\n")
	})
	h.env["COMBINE_CONFIG"] = "config/ci.yaml"

	require.NoError(t, h.command().Execute())
	require.True(t, h.fs.Exists(testWorkspaceRoot+"/out/index.html"))
}

func TestCombine_MissingExplicitConfig(t *testing.T) {
	h := buildWorkspace(t, nil)

	err := h.command("--config", "nope.yaml").Execute()
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to read config")
}

func TestCombine_MissingShell(t *testing.T) {
	h := buildWorkspace(t, func(wb *workspace.WorkspaceBuilder) {
		wb.AddFile("combine.yaml", "shellDist: build\n")
	})

	err := h.command().Execute()
	require.ErrorIs(t, err, copier.ErrSourceNotFound)
}

func TestCombine_NoWorkspace(t *testing.T) {
	h := &harness{fs: filesystem.NewMockFileSystem(), env: map[string]string{}}
	h.fs.AddDir("/empty")
	h.fs.SetCurrentDir("/empty")

	err := h.command().Execute()
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to detect workspace")
}

func TestCombine_RejectsArguments(t *testing.T) {
	h := buildWorkspace(t, nil)

	err := h.command("extra").Execute()
	require.Error(t, err)
	require.False(t, h.fs.Exists(testWorkspaceRoot+"/webapp"))
}

func TestCombine_WritesReport(t *testing.T) {
	h := buildWorkspace(t, nil)

	require.NoError(t, h.command("--report", "out/combine-report.json").Execute())

	data := h.read(t, "out/combine-report.json")

	var rep struct {
		RunID   string `json:"runId"`
		Results []struct {
			Library string `json:"library"`
			Outcome string `json:"outcome"`
		} `json:"results"`
	}
	require.NoError(t, json.Unmarshal([]byte(data), &rep))
	require.Len(t, rep.RunID, 8)

	outcomes := map[string]string{}
	for _, r := range rep.Results {
		outcomes[r.Library] = r.Outcome
	}
	require.Equal(t, map[string]string{
		"ui5lab-browser":        "excluded",
		"ui5lab-library-simple": "copied",
		"ui5lab-geometry":       "skipped-tooling",
		"@openui5/sap.m":        "excluded",
	}, outcomes)
}

func TestChangedBool(t *testing.T) {
	cmd := &cobra.Command{Use: "x", RunE: func(*cobra.Command, []string) error { return nil }}
	var v bool
	cmd.Flags().BoolVarP(&v, deployFlag, "d", false, "")

	_, changed := changedBool(cmd, deployFlag)
	require.False(t, changed)

	require.NoError(t, cmd.ParseFlags([]string{"-d"}))
	value, changed := changedBool(cmd, deployFlag)
	require.True(t, changed)
	require.True(t, value)

	_, changed = changedBool(cmd, "missing")
	require.False(t, changed)

	_, changed = changedBool(nil, deployFlag)
	require.False(t, changed)
}
