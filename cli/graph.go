// ABOUTME: Link map CLI command
// ABOUTME: Renders campaigns and their links as DOT, SVG or PNG
package cli

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/goccy/go-graphviz"
	"github.com/jstnrme77/reportcard-portal/portal"
	"github.com/jstnrme77/reportcard-portal/viz"
)

var graphFormats = map[string]graphviz.Format{
	"dot": graphviz.XDOT,
	"svg": graphviz.SVG,
	"png": graphviz.PNG,
}

// GraphCommand generates the campaign link map.
func GraphCommand(p *portal.Portal, args []string) error {
	fs := flag.NewFlagSet("graph", flag.ExitOnError)
	output := fs.String("output", "", "Output file (default: stdout)")
	format := fs.String("format", "dot", "Output format: dot, svg or png")
	_ = fs.Parse(args)

	f, ok := graphFormats[*format]
	if !ok {
		return fmt.Errorf("unknown format: %s (valid formats: dot, svg, png)", *format)
	}
	if f == graphviz.PNG && *output == "" {
		return fmt.Errorf("--output is required for png")
	}

	ctx := context.Background()
	portal.Fetch(ctx, p.Campaigns, p.Links)
	if err := p.Campaigns.Snapshot().Err; err != nil {
		return fmt.Errorf("failed to fetch campaigns: %w", err)
	}
	if err := p.Links.Snapshot().Err; err != nil {
		return fmt.Errorf("failed to fetch links: %w", err)
	}

	out, err := viz.RenderLinkGraph(ctx, p.Campaigns.Snapshot().Data, p.Links.Snapshot().Data, f)
	if err != nil {
		return err
	}

	if *output != "" {
		return os.WriteFile(*output, []byte(out), 0644)
	}

	fmt.Fprintln(stdout, out)
	return nil
}
