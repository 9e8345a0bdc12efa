package cli

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/linkrank/internal/core/domain"
)

var linkCmd = &cobra.Command{
	Use:   "link",
	Short: "Manage indexed links",
	Long:  `Add, inspect, update, or delete links and their chunks.`,
}

var linkAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a link with pre-split chunk texts",
	Long: `Adds a link and embeds its chunks. Chunk texts are given with repeated
--chunk flags or read from --chunks-file, where chunks are separated by
blank lines. The owner is rewarded with points.`,
	Args: cobra.NoArgs,
	RunE: runLinkAdd,
}

var linkGetCmd = &cobra.Command{
	Use:   "get [link-id]",
	Short: "Show a link",
	Args:  cobra.ExactArgs(1),
	RunE:  runLinkGet,
}

var linkListCmd = &cobra.Command{
	Use:   "list",
	Short: "List links",
	Args:  cobra.NoArgs,
	RunE:  runLinkList,
}

var linkUpdateCmd = &cobra.Command{
	Use:   "update [link-id]",
	Short: "Update link metadata",
	Long:  `Changes only the fields given as flags. The owner and id cannot be changed.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runLinkUpdate,
}

var linkDeleteCmd = &cobra.Command{
	Use:   "delete [link-id]",
	Short: "Delete a link and its chunks",
	Args:  cobra.ExactArgs(1),
	RunE:  runLinkDelete,
}

var (
	linkURL        string
	linkTitle      string
	linkName       string
	linkType       string
	linkSummary    string
	linkOwner      string
	linkOwnerName  string
	linkScores     []string
	linkChunks     []string
	linkChunksFile string
	linkJSON       bool
)

func init() {
	for _, c := range []*cobra.Command{linkAddCmd, linkUpdateCmd} {
		c.Flags().StringVar(&linkURL, "url", "", "link URL")
		c.Flags().StringVar(&linkTitle, "title", "", "link title")
		c.Flags().StringVar(&linkName, "name", "", "short display name")
		c.Flags().StringVar(&linkType, "type", "", "link type")
		c.Flags().StringVar(&linkSummary, "summary", "", "summary text")
		c.Flags().StringArrayVar(&linkScores, "score", nil, "category score as name=value (0-100)")
	}
	linkAddCmd.Flags().StringVar(&linkOwner, "owner", "", "id of the submitting user")
	linkAddCmd.Flags().StringVar(&linkOwnerName, "owner-name", "", "display name of the submitting user")
	linkAddCmd.Flags().StringArrayVar(&linkChunks, "chunk", nil, "chunk text (repeatable)")
	linkAddCmd.Flags().StringVar(&linkChunksFile, "chunks-file", "", "file with chunks separated by blank lines")
	linkListCmd.Flags().StringVar(&linkOwner, "owner", "", "only links submitted by this user")

	for _, c := range []*cobra.Command{linkAddCmd, linkGetCmd, linkListCmd, linkUpdateCmd} {
		c.Flags().BoolVar(&linkJSON, "json", false, "output as JSON")
	}

	linkCmd.AddCommand(linkAddCmd)
	linkCmd.AddCommand(linkGetCmd)
	linkCmd.AddCommand(linkListCmd)
	linkCmd.AddCommand(linkUpdateCmd)
	linkCmd.AddCommand(linkDeleteCmd)
	rootCmd.AddCommand(linkCmd)
}

func runLinkAdd(cmd *cobra.Command, _ []string) error {
	if linkService == nil {
		return errors.New("link service not configured")
	}

	doc := domain.Document{
		URL:      linkURL,
		Title:    linkTitle,
		Name:     linkName,
		LinkType: linkType,
		Summary:  linkSummary,
		User:     domain.Owner{ID: linkOwner, Name: linkOwnerName},
	}
	scores, err := parseScores(linkScores)
	if err != nil {
		return err
	}
	for c, v := range scores {
		doc.SetScore(c, v)
	}

	chunks := append([]string(nil), linkChunks...)
	if linkChunksFile != "" {
		fromFile, err := readChunksFile(linkChunksFile)
		if err != nil {
			return err
		}
		chunks = append(chunks, fromFile...)
	}

	added, err := linkService.Add(cmd.Context(), domain.NewLink{Document: doc, Chunks: chunks})
	if err != nil {
		return fmt.Errorf("failed to add link: %w", err)
	}

	if linkJSON {
		return printJSON(cmd, added)
	}
	cmd.Printf("%s %s (%d chunks)\n", render(cmd, successStyle, "Added link"), added.ID, len(chunks))
	return nil
}

func runLinkGet(cmd *cobra.Command, args []string) error {
	if linkService == nil {
		return errors.New("link service not configured")
	}

	doc, err := linkService.Get(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get link: %w", err)
	}

	if linkJSON {
		return printJSON(cmd, doc)
	}
	printDocument(cmd, doc)
	return nil
}

func runLinkList(cmd *cobra.Command, _ []string) error {
	if linkService == nil {
		return errors.New("link service not configured")
	}

	docs, err := linkService.List(cmd.Context(), linkOwner)
	if err != nil {
		return fmt.Errorf("failed to list links: %w", err)
	}

	if linkJSON {
		return printJSON(cmd, docs)
	}
	if len(docs) == 0 {
		cmd.Println("No links found.")
		return nil
	}
	for i := range docs {
		title := docs[i].Title
		if title == "" {
			title = docs[i].URL
		}
		cmd.Printf("  %s  %s\n", render(cmd, mutedStyle, docs[i].ID), title)
	}
	cmd.Println()
	cmd.Printf("Total: %d links\n", len(docs))
	return nil
}

func runLinkUpdate(cmd *cobra.Command, args []string) error {
	if linkService == nil {
		return errors.New("link service not configured")
	}

	patch, err := patchFromFlags(cmd)
	if err != nil {
		return err
	}

	doc, err := linkService.Update(cmd.Context(), args[0], patch)
	if err != nil {
		return fmt.Errorf("failed to update link: %w", err)
	}

	if linkJSON {
		return printJSON(cmd, doc)
	}
	cmd.Printf("%s %s\n", render(cmd, successStyle, "Updated link"), doc.ID)
	return nil
}

func runLinkDelete(cmd *cobra.Command, args []string) error {
	if linkService == nil {
		return errors.New("link service not configured")
	}

	if err := linkService.Delete(cmd.Context(), args[0]); err != nil {
		return fmt.Errorf("failed to delete link: %w", err)
	}
	cmd.Printf("%s %s\n", render(cmd, successStyle, "Deleted link"), args[0])
	return nil
}

// patchFromFlags builds a patch from the flags that were given.
func patchFromFlags(cmd *cobra.Command) (domain.DocumentPatch, error) {
	var patch domain.DocumentPatch
	flags := cmd.Flags()
	if flags.Changed("url") {
		patch.URL = &linkURL
	}
	if flags.Changed("title") {
		patch.Title = &linkTitle
	}
	if flags.Changed("name") {
		patch.Name = &linkName
	}
	if flags.Changed("type") {
		patch.LinkType = &linkType
	}
	if flags.Changed("summary") {
		patch.Summary = &linkSummary
	}

	scores, err := parseScores(linkScores)
	if err != nil {
		return patch, err
	}
	for c, v := range scores {
		switch c {
		case domain.CategoryCO2:
			patch.CO2Score = &v
		case domain.CategoryReduction:
			patch.ReductionScore = &v
		case domain.CategoryRegulation:
			patch.RegulationScore = &v
		case domain.CategoryReporting:
			patch.ReportingScore = &v
		case domain.CategorySustainableFinance:
			patch.SustainableFinanceScore = &v
		}
	}
	return patch, nil
}

// parseScores parses name=value category scores.
func parseScores(raw []string) (map[domain.Category]float64, error) {
	scores := make(map[domain.Category]float64, len(raw))
	for _, s := range raw {
		name, value, ok := strings.Cut(s, "=")
		if !ok {
			return nil, fmt.Errorf("invalid --score %q: want name=value", s)
		}
		c := domain.Category(strings.TrimSpace(name))
		if !c.Valid() {
			return nil, fmt.Errorf("unknown category %q", name)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid --score %q: %w", s, err)
		}
		scores[c] = v
	}
	return scores, nil
}

// readChunksFile splits a text file into chunks on blank lines.
func readChunksFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading chunks file: %w", err)
	}

	var chunks []string
	var current []string
	flush := func() {
		if len(current) > 0 {
			chunks = append(chunks, strings.Join(current, "\n"))
			current = nil
		}
	}
	for _, line := range strings.Split(strings.ReplaceAll(string(data), "\r\n", "\n"), "\n") {
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		current = append(current, line)
	}
	flush()
	return chunks, nil
}

func printDocument(cmd *cobra.Command, doc *domain.Document) {
	title := doc.Title
	if title == "" {
		title = doc.URL
	}
	cmd.Println(render(cmd, titleStyle, title))
	printField(cmd, "ID", doc.ID)
	printField(cmd, "URL", doc.URL)
	if doc.Name != "" {
		printField(cmd, "Name", doc.Name)
	}
	printField(cmd, "Type", doc.LinkType)
	if doc.User.ID != "" {
		printField(cmd, "Owner", doc.User.ID)
	}
	for _, c := range domain.Categories() {
		v, _ := doc.Score(c)
		printField(cmd, string(c), v)
	}
	if doc.Summary != "" {
		cmd.Println()
		cmd.Printf("  %s\n", doc.Summary)
	}
}
