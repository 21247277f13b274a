package analysis

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"golang.org/x/term"

	"tradeanalysis/internal/agents"
	"tradeanalysis/internal/workflow"
)

const (
	previewLimit = 500
	ruleWidth    = 60
	maxWrapWidth = 120
)

var agentIcons = map[agents.AgentName]string{
	agents.AgentMarket:       "📊",
	agents.AgentFundamentals: "📈",
	agents.AgentNews:         "📰",
	agents.AgentSentiment:    "💭",
}

// Console prints run progress for a human reader. It implements RunReporter.
type Console struct {
	mu       sync.Mutex
	out      io.Writer
	markdown *glamour.TermRenderer

	title   *color.Color
	success *color.Color
	failure *color.Color
	muted   *color.Color
}

// NewConsole creates a console writing to out. Colors and markdown rendering
// are enabled only when out is a terminal.
func NewConsole(out io.Writer) *Console {
	c := &Console{
		out:     out,
		title:   color.New(color.FgCyan, color.Bold),
		success: color.New(color.FgGreen),
		failure: color.New(color.FgRed, color.Bold),
		muted:   color.New(color.FgHiBlack),
	}

	width, tty := terminalWidth(out)
	if !tty {
		for _, col := range []*color.Color{c.title, c.success, c.failure, c.muted} {
			col.DisableColor()
		}
		return c
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
		glamour.WithEmoji(),
	)
	if err == nil {
		c.markdown = renderer
	}
	return c
}

func terminalWidth(out io.Writer) (int, bool) {
	f, ok := out.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return 0, false
	}

	width := 80
	if w, _, err := term.GetSize(int(f.Fd())); err == nil && w > 0 {
		width = min(w-4, maxWrapWidth)
	}
	return width, true
}

func (c *Console) printf(format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, format, args...)
}

func rule() string { return strings.Repeat("=", ruleWidth) }

func (c *Console) RunStarted(info RunInfo) {
	c.printf("\n%s\n%s\n%s\nQuery: %s\nModel: %s\n%s\n",
		rule(),
		c.title.Sprint("🏦 TRADING ANALYSIS MULTI-AGENT SYSTEM"),
		rule(),
		info.Query,
		info.Model,
		rule(),
	)
}

func (c *Console) QueryDispatched(query agents.Query, targets int) {
	c.printf("\n🚀 Dispatching analysis request to %d agents: %s\n%s\n", targets, query, strings.Repeat("-", 50))
}

func (c *Console) AnalysisCompleted(result agents.AnalysisResult) {
	icon, ok := agentIcons[result.Source]
	if !ok {
		icon = "•"
	}

	c.printf("\n%s %s %s\n%s\n",
		icon,
		c.title.Sprintf("%s Agent Analysis:", displayName(result.Source)),
		c.muted.Sprintf("(%s)", result.Duration.Round(time.Millisecond)),
		Preview(result.Text, previewLimit),
	)
}

func (c *Console) AnalysisReceived(source agents.AgentName, collected, required int) {
	c.printf("\n🔄 Orchestrator received analysis from: %s %s\n", source, c.muted.Sprintf("(%d/%d)", collected, required))
}

func (c *Console) StatusChanged(state workflow.RunState) {
	if state == workflow.StateIdle {
		c.printf("\n%s\n", c.success.Sprint("✅ Workflow completed successfully"))
	}
}

func (c *Console) NodeFailed(node workflow.NodeID, err error) {
	c.printf("\n%s\n   Error: %v\n", c.failure.Sprintf("❌ Executor failed: %s", node), err)
}

func (c *Console) RecommendationReady(text string) {
	body := text
	if c.markdown != nil {
		if rendered, err := c.markdown.Render(text); err == nil {
			body = strings.TrimRight(rendered, "\n")
		}
	}

	c.printf("\n%s\n%s\n%s\n%s\n%s\n\n",
		rule(),
		c.title.Sprint("🎯 FINAL INVESTMENT RECOMMENDATION"),
		rule(),
		body,
		rule(),
	)
}

func (c *Console) RunFinished(summary RunSummary) {
	if summary.Err != nil {
		c.printf("\n%s\n", c.failure.Sprintf("❌ Workflow failed: %v", summary.Err))
	}

	c.printf("%s\n",
		c.muted.Sprintf("Run %s: %s, %d LLM calls, %s input / %s output tokens, est. cost $%s",
			summary.ID,
			summary.Duration.Round(100*time.Millisecond),
			summary.Calls,
			humanize.Comma(summary.InputTokens),
			humanize.Comma(summary.OutputTokens),
			summary.CostUSD.StringFixed(4),
		),
	)
}

func displayName(name agents.AgentName) string {
	if name == "" {
		return "Unknown"
	}
	return strings.ToUpper(string(name[:1])) + string(name[1:])
}

// Preview returns at most limit runes of text followed by an ellipsis.
func Preview(text string, limit int) string {
	runes := []rune(text)
	if len(runes) > limit {
		runes = runes[:limit]
	}
	return string(runes) + "..."
}

var _ RunReporter = (*Console)(nil)
