package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/banshee-data/vrtelemetry/internal/recorder"
)

func (a *app) resolve(name string) (string, error) {
	if name == "" {
		return "", errors.New("missing -log")
	}
	return a.logDir.Resolve(name)
}

func (a *app) info(name string) error {
	path, err := a.resolve(name)
	if err != nil {
		return err
	}
	s, err := recorder.Info(path)
	if err != nil {
		return err
	}
	fmt.Fprint(a.out, s)
	return nil
}

func (a *app) dump(name string, limit int) error {
	path, err := a.resolve(name)
	if err != nil {
		return err
	}
	r, err := recorder.Open(path)
	if err != nil {
		return err
	}
	defer r.Close()

	h := r.Header()
	fmt.Fprintf(a.out, "session %s written by %s at %s: %q\n",
		h.SessionID, h.WriterVersion, time.UnixMilli(h.CreatedMs).UTC().Format(time.RFC3339), h.Info)
	r.OnPacketError(func(pe *recorder.PacketError) {
		fmt.Fprintf(a.out, "! %v\n", pe)
	})

	for n := 0; limit == 0 || n < limit; n++ {
		f, err := r.ReadFrame()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		fmt.Fprintln(a.out, f)
		if f.Data != nil {
			fmt.Fprintf(a.out, "  %s\n", f.Data)
		}
		for _, s := range f.Actors {
			fmt.Fprintf(a.out, "  actor %s\n", s)
		}
		for _, c := range f.Configs {
			fmt.Fprintf(a.out, "  config %s\n", c)
		}
	}
	return nil
}

func (a *app) list(ctx context.Context) error {
	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	defer w.Flush()

	cat, err := a.openCatalog()
	if err != nil {
		return err
	}
	if cat != nil {
		defer cat.Close()
		recs, err := cat.List(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintln(w, "CREATED\tFRAMES\tDURATION\tINFO\tPATH")
		for _, r := range recs {
			fmt.Fprintf(w, "%s\t%d\t%.1fs\t%s\t%s\n",
				time.UnixMilli(r.CreatedMs).UTC().Format(time.RFC3339), r.Frames, r.Duration, r.Info, r.Path)
		}
		return nil
	}

	paths, err := a.logDir.List()
	if err != nil {
		return err
	}
	fmt.Fprintln(w, "FRAMES\tDURATION\tCORRUPT\tPATH")
	for _, p := range paths {
		s, err := recorder.Info(p)
		if err != nil {
			fmt.Fprintf(w, "-\t-\t-\t%s (%v)\n", p, err)
			continue
		}
		fmt.Fprintf(w, "%d\t%.1fs\t%d\t%s\n", s.Frames, s.Duration, s.Corrupt, p)
	}
	return nil
}
