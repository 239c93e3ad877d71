package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/vadim/neo-studio/internal/domain/common"
	"github.com/vadim/neo-studio/internal/domain/publication/entity"
	"github.com/vadim/neo-studio/internal/domain/publication/policy"
	"github.com/vadim/neo-studio/internal/domain/publication/selector"
	"github.com/vadim/neo-studio/internal/search"
)

var (
	// List flags
	listStatus string
	listQuery  string

	// Create flags
	createTitle    string
	createMessage  string
	createPlatform string
	createContent  string
	createMode     string
	createAt       string

	// Delete flags
	assumeYes bool
)

// publicationsCmd groups publication lifecycle commands
var publicationsCmd = &cobra.Command{
	Use:     "publications",
	Aliases: []string{"pub"},
	Short:   "List and manage publications",
}

var publicationsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List publications, optionally filtered by status and text",
	Args:  cobra.NoArgs,
	RunE:  runPublicationsList,
}

var publicationsViewCmd = &cobra.Command{
	Use:   "view",
	Short: "Show statistics, upcoming publications and items needing attention",
	Args:  cobra.NoArgs,
	RunE:  runPublicationsView,
}

var publicationsStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show publication counts per status and the success rate",
	Args:  cobra.NoArgs,
	RunE:  runViewPart(func(w io.Writer, v selector.View) error { return printStats(w, v.Statistics) }, func(v selector.View) any { return v.Statistics }),
}

var publicationsUpcomingCmd = &cobra.Command{
	Use:   "upcoming",
	Short: "Show the next scheduled publications",
	Args:  cobra.NoArgs,
	RunE:  runViewPart(func(w io.Writer, v selector.View) error { return printPublications(w, v.Upcoming) }, func(v selector.View) any { return v.Upcoming }),
}

var publicationsAttentionCmd = &cobra.Command{
	Use:   "attention",
	Short: "Show failed publications, imminent schedules and stale drafts",
	Args:  cobra.NoArgs,
	RunE:  runViewPart(printAttention, func(v selector.View) any { return v.Attention }),
}

var publicationsCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a draft, scheduled or immediate publication",
	Long: `Create a publication.

Modes:
  brouillon - saved as a draft (default)
  programme - scheduled at --at (RFC3339)
  immediat  - created then published right away`,
	Args: cobra.NoArgs,
	RunE: runPublicationsCreate,
}

var publicationsPublishCmd = &cobra.Command{
	Use:   "publish <id>",
	Short: "Publish a draft now",
	Args:  cobra.ExactArgs(1),
	RunE:  runPublicationsPublish,
}

var publicationsScheduleCmd = &cobra.Command{
	Use:   "schedule <id> <RFC3339 date>",
	Short: "Schedule or reschedule a publication",
	Args:  cobra.ExactArgs(2),
	RunE:  runPublicationsSchedule,
}

var publicationsCancelCmd = &cobra.Command{
	Use:   "cancel <id>",
	Short: "Cancel a scheduled publication",
	Args:  cobra.ExactArgs(1),
	RunE:  runPublicationsCancel,
}

var publicationsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a publication after confirmation",
	Args:  cobra.ExactArgs(1),
	RunE:  runPublicationsDelete,
}

func init() {
	publicationsListCmd.Flags().StringVarP(&listStatus, "status", "s", "", "Filter by status (brouillon, programme, publie, echec, supprime)")
	publicationsListCmd.Flags().StringVarP(&listQuery, "query", "q", "", "Filter by text")

	publicationsCreateCmd.Flags().StringVar(&createTitle, "title", "", "Publication title (required)")
	publicationsCreateCmd.Flags().StringVarP(&createMessage, "message", "m", "", "Message to publish (required)")
	publicationsCreateCmd.Flags().StringVarP(&createPlatform, "platform", "p", "", "Platform id (required)")
	publicationsCreateCmd.Flags().StringVar(&createContent, "content", "", "Generated content id")
	publicationsCreateCmd.Flags().StringVar(&createMode, "mode", "brouillon", "brouillon, programme or immediat")
	publicationsCreateCmd.Flags().StringVar(&createAt, "at", "", "Scheduled date (RFC3339), required with --mode programme")

	publicationsDeleteCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "Skip the confirmation prompt")
}

func runPublicationsList(cmd *cobra.Command, args []string) error {
	in := policy.SearchInput{Query: listQuery}
	if listStatus != "" {
		status, err := entity.ParseStatus(listStatus)
		if err != nil {
			return err
		}
		in.Status = &status
	}

	ctx, cancel := commandContext()
	defer cancel()

	env, err := newEnv(ctx, cliNotifier{w: cmd.ErrOrStderr()})
	if err != nil {
		return err
	}

	pubs, err := env.publications.Search(ctx, in)
	if err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), pubs)
	}
	return printPublications(cmd.OutOrStdout(), pubs)
}

func runPublicationsView(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext()
	defer cancel()

	env, err := newEnv(ctx, cliNotifier{w: cmd.ErrOrStderr()})
	if err != nil {
		return err
	}

	view, err := env.publications.View(ctx)
	if err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), view)
	}
	return printView(cmd.OutOrStdout(), view)
}

// runViewPart prints one section of the derived view, as a table or as
// the JSON value selected by part
func runViewPart(render func(io.Writer, selector.View) error, part func(selector.View) any) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext()
		defer cancel()

		env, err := newEnv(ctx, cliNotifier{w: cmd.ErrOrStderr()})
		if err != nil {
			return err
		}

		view, err := env.publications.View(ctx)
		if err != nil {
			return err
		}

		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), part(view))
		}
		return render(cmd.OutOrStdout(), view)
	}
}

func runPublicationsCreate(cmd *cobra.Command, args []string) error {
	mode, err := entity.ParseCreateMode(createMode)
	if err != nil {
		return err
	}

	in := entity.CreateInput{
		Title:      createTitle,
		Message:    createMessage,
		PlatformID: common.ID(createPlatform),
		ContentID:  common.ID(createContent),
		Mode:       mode,
	}
	if createAt != "" {
		at, err := time.Parse(time.RFC3339, createAt)
		if err != nil {
			return fmt.Errorf("invalid --at date, use RFC3339: %w", err)
		}
		in.ScheduledAt = &at
	}

	ctx, cancel := commandContext()
	defer cancel()

	env, err := newEnv(ctx, cliNotifier{w: cmd.ErrOrStderr()})
	if err != nil {
		return err
	}

	pub, err := env.publications.Create(ctx, in)
	if err != nil {
		return err
	}
	return printPublication(cmd.OutOrStdout(), pub)
}

func runPublicationsPublish(cmd *cobra.Command, args []string) error {
	return runLifecycle(cmd, func(ctx context.Context, p *policy.Policy) (*entity.Publication, error) {
		return p.Publish(ctx, common.ID(args[0]))
	})
}

func runPublicationsSchedule(cmd *cobra.Command, args []string) error {
	at, err := time.Parse(time.RFC3339, args[1])
	if err != nil {
		return fmt.Errorf("invalid date, use RFC3339: %w", err)
	}
	return runLifecycle(cmd, func(ctx context.Context, p *policy.Policy) (*entity.Publication, error) {
		return p.Schedule(ctx, common.ID(args[0]), at)
	})
}

func runPublicationsCancel(cmd *cobra.Command, args []string) error {
	return runLifecycle(cmd, func(ctx context.Context, p *policy.Policy) (*entity.Publication, error) {
		return p.Cancel(ctx, common.ID(args[0]))
	})
}

func runLifecycle(cmd *cobra.Command, fn func(context.Context, *policy.Policy) (*entity.Publication, error)) error {
	ctx, cancel := commandContext()
	defer cancel()

	env, err := newEnv(ctx, cliNotifier{w: cmd.ErrOrStderr()})
	if err != nil {
		return err
	}

	// Load the list so actions are gated on the current status
	if _, err := env.publications.List(ctx); err != nil {
		return err
	}

	pub, err := fn(ctx, env.publications)
	if err != nil {
		return err
	}
	return printPublication(cmd.OutOrStdout(), pub)
}

func runPublicationsDelete(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext()
	defer cancel()

	env, err := newEnv(ctx, cliNotifier{w: cmd.ErrOrStderr()})
	if err != nil {
		return err
	}

	// The prompt names the publication from the loaded list
	if _, err := env.publications.List(ctx); err != nil {
		return err
	}

	var confirmer policy.Confirmer = policy.Confirmed
	if !assumeYes {
		confirmer = promptConfirmer(cmd.InOrStdin(), cmd.ErrOrStderr())
	}

	return env.publications.Delete(ctx, common.ID(args[0]), confirmer)
}

// promptConfirmer asks on w and reads the answer from r. Anything but an
// explicit yes declines.
func promptConfirmer(r io.Reader, w io.Writer) policy.Confirmer {
	return policy.ConfirmFunc(func(_ context.Context, pub *entity.Publication) (bool, error) {
		label := pub.Title
		if label == "" {
			label = "#" + pub.ID.String()
		}
		fmt.Fprintf(w, "Supprimer la publication « %s » ? Cette action est irréversible. [o/N] ", label)

		answer, err := bufio.NewReader(r).ReadString('\n')
		if err != nil && answer == "" {
			if err == io.EOF {
				return false, nil
			}
			return false, err
		}

		switch strings.ToLower(strings.TrimSpace(answer)) {
		case "o", "oui", "y", "yes":
			return true, nil
		default:
			return false, nil
		}
	})
}

func printPublication(w io.Writer, pub *entity.Publication) error {
	if jsonOutput {
		return printJSON(w, pub)
	}
	return printPublications(w, []entity.Publication{*pub})
}

func printPublications(w io.Writer, pubs []entity.Publication) error {
	rows := make([][]string, 0, len(pubs))
	for i := range pubs {
		p := &pubs[i]
		scheduled := ""
		if p.ScheduledAt != nil {
			scheduled = search.Date(*p.ScheduledAt)
		}
		rows = append(rows, []string{
			p.ID.String(),
			string(p.Status),
			p.PlatformName(),
			scheduled,
			p.Title,
			p.DisplayMessage(),
		})
	}
	return printTable(w, []string{"ID", "STATUT", "PLATEFORME", "PROGRAMMEE", "TITRE", "MESSAGE"}, rows)
}

func printStats(w io.Writer, s selector.Stats) error {
	_, err := fmt.Fprintf(w, "Total: %d  Brouillons: %d  Programmées: %d  Publiées: %d  En erreur: %d  Annulées: %d  Réussite: %.1f%%\n",
		s.Total, s.Drafts, s.Scheduled, s.Published, s.Errors, s.Cancelled, s.SuccessRate)
	return err
}

func printAttention(w io.Writer, view selector.View) error {
	a := view.Attention
	list := make([]entity.Publication, 0, a.Count())
	list = append(list, a.Errors...)
	list = append(list, a.Imminent...)
	list = append(list, a.StaleDraft...)
	return printPublications(w, list)
}

func printView(w io.Writer, view selector.View) error {
	if err := printStats(w, view.Statistics); err != nil {
		return err
	}

	fmt.Fprintln(w, "\nProchaines publications:")
	if err := printPublications(w, view.Upcoming); err != nil {
		return err
	}

	fmt.Fprintf(w, "\nÀ surveiller (%d):\n", view.Attention.Count())
	return printAttention(w, view)
}
