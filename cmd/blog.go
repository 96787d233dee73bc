package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/itiky/blogsync/model"
	"github.com/itiky/blogsync/resource"
	"github.com/itiky/blogsync/storage"
	"github.com/itiky/blogsync/viewmodel"
)

const (
	FlagQuery      = "query"
	FlagFilter     = "filter"
	FlagOrderDesc  = "desc"
	FlagPages      = "pages"
	FlagSaveFilter = "save-filter"
	FlagWatch      = "watch"
	FlagRefresh    = "refresh"
	FlagTitle      = "title"
	FlagBody       = "body"
	FlagImage      = "image"
)

// signalContext is canceled on SIGINT / SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// printState prints the envelope response, returns an error for error envelopes.
func printState(state resource.DataState[model.BlogViewState]) error {
	message := state.Message()
	switch {
	case state.Status == resource.StatusError:
		return errors.New(message)
	case message != "":
		fmt.Println(message)
	}

	return nil
}

// selectPost puts the cached post (or a slug-only stub) into the view model.
func selectPost(ctx context.Context, a *app, slug string) {
	post, err := a.cache.GetBlogPostBySlug(ctx, slug)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			log.Fatal().Err(err).Msg("cache read")
		}
		post = model.BlogPost{Slug: slug}
	}
	a.vm.SetBlogPost(post)
}

// GetSearchCmd returns the blog list search command.
func GetSearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search blog posts, caching the results",
		Run: func(cmd *cobra.Command, args []string) {
			ctx, cancel := signalContext()
			defer cancel()

			// Parse inputs
			query, err := cmd.Flags().GetString(FlagQuery)
			if err != nil {
				log.Fatal().Err(err).Msgf("%s flag", FlagQuery)
			}
			pages, err := cmd.Flags().GetInt(FlagPages)
			if err != nil {
				log.Fatal().Err(err).Msgf("%s flag", FlagPages)
			}
			saveFilter, err := cmd.Flags().GetBool(FlagSaveFilter)
			if err != nil {
				log.Fatal().Err(err).Msgf("%s flag", FlagSaveFilter)
			}
			watch, err := cmd.Flags().GetBool(FlagWatch)
			if err != nil {
				log.Fatal().Err(err).Msgf("%s flag", FlagWatch)
			}
			refresh, err := cmd.Flags().GetDuration(FlagRefresh)
			if err != nil {
				log.Fatal().Err(err).Msgf("%s flag", FlagRefresh)
			}
			if watch && refresh <= 0 {
				log.Fatal().Msgf("%s flag: must be GT 0", FlagRefresh)
			}

			a, err := newApp(ctx, cmd)
			if err != nil {
				log.Fatal().Err(err).Msg("app init")
			}
			defer a.Close()

			a.vm.SetQuery(query)
			if cmd.Flags().Changed(FlagFilter) {
				filter, err := cmd.Flags().GetString(FlagFilter)
				if err != nil {
					log.Fatal().Err(err).Msgf("%s flag", FlagFilter)
				}
				a.vm.SetBlogFilter(model.FilterField(filter))
			}
			if cmd.Flags().Changed(FlagOrderDesc) {
				desc, err := cmd.Flags().GetBool(FlagOrderDesc)
				if err != nil {
					log.Fatal().Err(err).Msgf("%s flag", FlagOrderDesc)
				}
				order := model.BlogOrderAsc
				if desc {
					order = model.BlogOrderDesc
				}
				a.vm.SetBlogOrder(order)
			}
			if saveFilter {
				if err := a.vm.SaveFilterOptions(a.vm.GetFilter(), a.vm.GetOrder()); err != nil {
					log.Error().Err(err).Msg("save filter options")
				}
			}

			// Work
			state, err := a.vm.LoadFirstPage(ctx)
			for page := 2; err == nil && page <= pages && state.Status != resource.StatusError; page++ {
				state, err = a.vm.NextPage(ctx)
			}
			if err != nil && !errors.Is(err, viewmodel.ErrQueryExhausted) {
				log.Fatal().Err(err).Msg("search")
			}

			fields := a.vm.ViewState().BlogFields
			if err := printState(state); err != nil && !fields.IsQueryExhausted {
				log.Error().Err(err).Msg("search")
			}

			fmt.Print(fields.BlogList.String())
			if fields.IsQueryExhausted {
				fmt.Println("No more results.")
			}

			if watch {
				err := a.vm.Watch(ctx, refresh, func(view model.BlogViewState) {
					fmt.Printf("--- %s\n", time.Now().Format(time.TimeOnly))
					fmt.Print(view.BlogFields.BlogList.String())
				})
				if err != nil && !errors.Is(err, context.Canceled) {
					log.Error().Err(err).Msg("watch")
				}
			}
		},
	}
	addSessionFlags(cmd)
	cmd.Flags().String(FlagQuery, "", "(optional) search text")
	cmd.Flags().String(FlagFilter, string(model.BlogFilterDateUpdated), "(optional) order by field: date_updated or username")
	cmd.Flags().Bool(FlagOrderDesc, true, "(optional) descending order")
	cmd.Flags().Int(FlagPages, 1, "(optional) number of pages to load")
	cmd.Flags().Bool(FlagSaveFilter, false, "(optional) persist the filter and order")
	cmd.Flags().Bool(FlagWatch, false, "(optional) keep printing the cached list as it changes, until interrupted")
	cmd.Flags().Duration(FlagRefresh, 30*time.Second, "(optional) API refresh period in watch mode")

	return cmd
}

// GetIsAuthorCmd returns the authorship check command.
func GetIsAuthorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "is-author [slug]",
		Short: "Check whether the account may edit a blog post",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			ctx, cancel := signalContext()
			defer cancel()

			a, err := newApp(ctx, cmd)
			if err != nil {
				log.Fatal().Err(err).Msg("app init")
			}
			defer a.Close()

			selectPost(ctx, a, args[0])
			state, err := a.vm.Run(ctx, viewmodel.CheckAuthorOfBlogPost{})
			if err != nil {
				log.Fatal().Err(err).Msg("is-author")
			}
			if err := printState(state); err != nil {
				log.Fatal().Err(err).Msg("is-author")
			}

			fmt.Println(a.vm.ViewState().ViewBlogFields.IsAuthorOfBlogPost)
		},
	}
	addSessionFlags(cmd)

	return cmd
}

// GetDeleteCmd returns the blog post delete command.
func GetDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete [slug]",
		Short: "Delete a blog post",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			ctx, cancel := signalContext()
			defer cancel()

			a, err := newApp(ctx, cmd)
			if err != nil {
				log.Fatal().Err(err).Msg("app init")
			}
			defer a.Close()

			selectPost(ctx, a, args[0])
			state, err := a.vm.Run(ctx, viewmodel.DeleteBlogPostEvent{})
			if err != nil {
				log.Fatal().Err(err).Msg("delete")
			}
			if err := printState(state); err != nil {
				log.Fatal().Err(err).Msg("delete")
			}
		},
	}
	addSessionFlags(cmd)

	return cmd
}

// GetUpdateCmd returns the blog post update command.
func GetUpdateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update [slug]",
		Short: "Update a blog post title, body and image",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			ctx, cancel := signalContext()
			defer cancel()

			// Parse inputs
			title, err := cmd.Flags().GetString(FlagTitle)
			if err != nil {
				log.Fatal().Err(err).Msgf("%s flag", FlagTitle)
			}
			body, err := cmd.Flags().GetString(FlagBody)
			if err != nil {
				log.Fatal().Err(err).Msgf("%s flag", FlagBody)
			}
			imagePath, err := cmd.Flags().GetString(FlagImage)
			if err != nil {
				log.Fatal().Err(err).Msgf("%s flag", FlagImage)
			}

			a, err := newApp(ctx, cmd)
			if err != nil {
				log.Fatal().Err(err).Msg("app init")
			}
			defer a.Close()

			selectPost(ctx, a, args[0])
			a.vm.SetUpdatedBlogFields(title, body, imagePath)
			state, err := a.vm.Run(ctx, viewmodel.UpdateBlogPostEvent{Title: title, Body: body})
			if err != nil {
				log.Fatal().Err(err).Msg("update")
			}
			if err := printState(state); err != nil {
				log.Fatal().Err(err).Msg("update")
			}

			if post := a.vm.ViewState().ViewBlogFields.BlogPost; post != nil {
				fmt.Println(post.String())
			}
		},
	}
	addSessionFlags(cmd)
	cmd.Flags().String(FlagTitle, "", "new title")
	cmd.Flags().String(FlagBody, "", "new body")
	cmd.Flags().String(FlagImage, "", "jpeg or png image path")

	return cmd
}

func init() {
	rootCmd.AddCommand(
		GetSearchCmd(),
		GetIsAuthorCmd(),
		GetDeleteCmd(),
		GetUpdateCmd(),
	)
}
