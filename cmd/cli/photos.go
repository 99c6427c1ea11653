package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"

	"github.com/himanishpuri/ourtrips/pkg/logger"
	"github.com/himanishpuri/ourtrips/pkg/models"
	"github.com/himanishpuri/ourtrips/pkg/ourtrips"
	"github.com/himanishpuri/ourtrips/pkg/ourtrips/archive"
)

// expandPhotos resolves each pattern with ** support, keeping order and
// dropping duplicates and directories.
func expandPhotos(patterns []string) ([]string, error) {
	seen := make(map[string]bool)
	var files []string
	for _, pattern := range patterns {
		matches, err := doublestar.FilepathGlob(pattern)
		if err != nil {
			return nil, fmt.Errorf("bad pattern %q: %w", pattern, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("no files match %q", pattern)
		}
		for _, m := range matches {
			if seen[m] {
				continue
			}
			if info, err := os.Stat(m); err != nil || info.IsDir() {
				continue
			}
			seen[m] = true
			files = append(files, m)
		}
	}
	return files, nil
}

func uploadFile(ctx context.Context, svc ourtrips.Service, tripID, uploaderID, path string) (*models.Photo, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return svc.UploadPhoto(ctx, tripID, uploaderID, filepath.Base(path), "", f)
}

func newPhotoCmd(o *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "photo",
		Short: "Upload, list and delete trip photos",
	}

	var uploader string
	add := &cobra.Command{
		Use:   "add <trip-id> <file-or-glob>...",
		Short: "Upload photos; patterns such as 'rome/**/*.jpg' are expanded",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			files, err := expandPhotos(args[1:])
			if err != nil {
				return err
			}
			return o.run(cmd, func(ctx context.Context, svc ourtrips.Service) error {
				var errs []error
				for _, path := range files {
					p, err := uploadFile(ctx, svc, args[0], uploader, path)
					if err != nil {
						// These fail every file the same way.
						if errors.Is(err, ourtrips.ErrNotFound) || errors.Is(err, ourtrips.ErrNotMember) {
							return err
						}
						logger.Warnf("Skipping %s: %v", path, err)
						errs = append(errs, fmt.Errorf("%s: %w", path, err))
						continue
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", p.ID, path)
				}
				return errors.Join(errs...)
			})
		},
	}

	add.Flags().StringVar(&uploader, "uploader", "", "User ID of the trip member uploading")
	add.MarkFlagRequired("uploader")

	list := &cobra.Command{
		Use:   "list <trip-id>",
		Short: "List a trip's photos",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.run(cmd, func(ctx context.Context, svc ourtrips.Service) error {
				photos, err := svc.ListPhotos(ctx, args[0])
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(photos) == 0 {
					fmt.Fprintln(out, "📭 No photos yet")
				}
				for _, p := range photos {
					fmt.Fprintf(out, "%s  %-24s %8d bytes  %s\n", p.ID, p.ContentType, p.SizeBytes, p.Path)
				}
				return nil
			})
		},
	}

	del := &cobra.Command{
		Use:   "delete <trip-id> <photo-id>",
		Short: "Delete a photo and its stored image",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.run(cmd, func(ctx context.Context, svc ourtrips.Service) error {
				if err := svc.DeletePhoto(ctx, args[0], args[1]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "✅ Deleted photo %s\n", args[1])
				return nil
			})
		},
	}

	cmd.AddCommand(add, list, del)
	return cmd
}

func newRecognizeCmd(o *rootOptions) *cobra.Command {
	var pin bool
	cmd := &cobra.Command{
		Use:   "recognize <trip-id> <photo-id>",
		Short: "Recognize the landmark in a photo",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.run(cmd, func(ctx context.Context, svc ourtrips.Service) error {
				out := cmd.OutOrStdout()
				if pin {
					loc, err := svc.RecognizeAndPin(ctx, args[0], args[1])
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "📍 %s (%.5f, %.5f) confidence %.2f\n", loc.Name, loc.Latitude, loc.Longitude, loc.Confidence)
					return nil
				}
				l, err := svc.RecognizeLandmark(ctx, args[0], args[1])
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "🏛  %s confidence %.2f\n", l.Name, l.Confidence)
				for _, at := range l.Locations {
					fmt.Fprintf(out, "   at %.5f, %.5f\n", at.Latitude, at.Longitude)
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&pin, "pin", false, "Also pin the landmark on the trip map")
	return cmd
}

func newLocationCmd(o *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "location",
		Short: "Read and edit the trip map",
	}

	list := &cobra.Command{
		Use:   "list <trip-id>",
		Short: "List pinned places in the order they were added",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.run(cmd, func(ctx context.Context, svc ourtrips.Service) error {
				locs, err := svc.ListLocations(ctx, args[0])
				if err != nil {
					return err
				}
				for _, l := range locs {
					fmt.Fprintf(cmd.OutOrStdout(), "%s\t%.5f\t%.5f\t%s\n", l.ID, l.Latitude, l.Longitude, l.Name)
				}
				return nil
			})
		},
	}

	var (
		name     string
		lat, lng float64
	)
	add := &cobra.Command{
		Use:   "add <trip-id>",
		Short: "Pin a place by hand",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.run(cmd, func(ctx context.Context, svc ourtrips.Service) error {
				loc, err := svc.AddLocation(ctx, args[0], models.Landmark{
					Name:       name,
					Confidence: 1,
					Locations:  []models.LatLng{{Latitude: lat, Longitude: lng}},
				})
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), loc.ID)
				return nil
			})
		},
	}
	add.Flags().StringVar(&name, "name", "", "Place name")
	add.Flags().Float64Var(&lat, "lat", 0, "Latitude")
	add.Flags().Float64Var(&lng, "lng", 0, "Longitude")
	add.MarkFlagRequired("name")

	cmd.AddCommand(list, add)
	return cmd
}

func newExportCmd(o *rootOptions) *cobra.Command {
	var (
		format string
		out    string
	)
	cmd := &cobra.Command{
		Use:   "export <trip-id>",
		Short: "Export a trip as JSON, MessagePack or a DOCX itinerary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := archive.ParseFormat(format)
			if err != nil {
				return err
			}
			if f == archive.FormatDOCX && out == "" {
				return errors.New("--out is required for docx")
			}
			return o.run(cmd, func(ctx context.Context, svc ourtrips.Service) error {
				a, err := svc.ExportTrip(ctx, args[0])
				if err != nil {
					return err
				}
				if f == archive.FormatDOCX {
					return archive.SaveDOCX(out, a)
				}
				if out == "" {
					return archive.Encode(cmd.OutOrStdout(), f, a)
				}
				return writeArchive(out, f, a)
			})
		},
	}
	cmd.Flags().StringVar(&format, "format", "json", "json, msgpack or docx")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file (default stdout; required for docx)")
	return cmd
}

func writeArchive(path string, f archive.Format, a *archive.Trip) (err error) {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := file.Close(); err == nil {
			err = cerr
		}
	}()
	if err := archive.Encode(file, f, a); err != nil {
		return err
	}
	logger.Infof("Wrote %s archive to %s", strings.ToUpper(string(f)), path)
	return nil
}
