package cli

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/hautranuit/SCM-Multichain-sub001/internal/api"
	"github.com/hautranuit/SCM-Multichain-sub001/internal/common"
	"github.com/hautranuit/SCM-Multichain-sub001/internal/filex"
	"github.com/hautranuit/SCM-Multichain-sub001/internal/record"
)

// mintFlags are shared by mint and mint-multi.
type mintFlags struct {
	itemID    string
	ttl       time.Duration
	metadata  []string
	withImage bool
	sizePx    int
	pngPath   string
	overwrite bool
	publish   bool
}

func (f *mintFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.itemID, "item", "", "item identifier (required)")
	fs.DurationVar(&f.ttl, "ttl", 0, "lifetime of the envelope, e.g. 60m (server default when unset)")
	fs.StringArrayVar(&f.metadata, "meta", nil, "metadata entry name=value; repeatable")
	fs.BoolVar(&f.withImage, "image", false, "include a base64 PNG in the output")
	fs.IntVar(&f.sizePx, "size", 0, "image edge length in pixels")
	fs.StringVar(&f.pngPath, "png", "", "write the QR image to this file")
	fs.BoolVar(&f.overwrite, "overwrite", false, "replace an existing --png file")
	fs.BoolVar(&f.publish, "publish", false, "store the image in the server's object store")
	_ = cmd.MarkFlagRequired("item")
}

func (f *mintFlags) request(cmd *cobra.Command) (api.MintRequest, error) {
	meta, err := ParseMetadata(f.metadata)
	if err != nil {
		return api.MintRequest{}, err
	}
	req := api.MintRequest{
		ItemID:      record.ItemID(f.itemID),
		Metadata:    meta,
		WithImage:   f.withImage || f.pngPath != "",
		ImageSizePx: f.sizePx,
		Publish:     f.publish,
	}
	if cmd.Flags().Changed("ttl") {
		minutes := f.ttl.Minutes()
		req.TTLMinutes = &minutes
	}
	return req, nil
}

func (a *App) runMint(cmd *cobra.Command, f *mintFlags, req api.MintRequest) error {
	ctx, cancel := a.withTimeout(cmd.Context())
	defer cancel()

	c, err := a.client()
	if err != nil {
		return err
	}
	defer c.Close()

	resp, err := c.Mint(ctx, req)
	if err != nil {
		return err
	}

	if f.pngPath != "" {
		png, err := base64.StdEncoding.DecodeString(resp.ImageBase64)
		if err != nil {
			return fmt.Errorf("decode image: %w", err)
		}
		if err := filex.WriteFile(f.pngPath, png, f.overwrite); err != nil {
			return err
		}
		if !f.withImage {
			resp.ImageBase64 = ""
		}
	}
	return a.printJSON(resp)
}

func newMintCommand(a *App) *cobra.Command {
	var (
		f       mintFlags
		cid     string
		chainID int64
	)
	cmd := &cobra.Command{
		Use:     "mint",
		Short:   "Mint an envelope for one item on one chain",
		Example: `  qrctl mint --item ITEM-1 --cid bafy... --chain 80002 --ttl 60m --png item-1.png`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			req, err := f.request(cmd)
			if err != nil {
				return err
			}
			req.ContentAddress = cid
			req.ChainID = chainID
			return a.runMint(cmd, &f, req)
		},
	}
	f.register(cmd)
	cmd.Flags().StringVar(&cid, "cid", "", "content address of the item (required)")
	cmd.Flags().Int64Var(&chainID, "chain", 0, "chain id (required)")
	_ = cmd.MarkFlagRequired("cid")
	_ = cmd.MarkFlagRequired("chain")
	return cmd
}

func newMintMultiCommand(a *App) *cobra.Command {
	var (
		f      mintFlags
		chains []string
	)
	cmd := &cobra.Command{
		Use:     "mint-multi",
		Short:   "Mint one envelope covering several chains",
		Example: `  qrctl mint-multi --item ITEM-1 --chain 80002=bafyA --chain 84532=bafyB`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			req, err := f.request(cmd)
			if err != nil {
				return err
			}
			m, err := parseChains(chains)
			if err != nil {
				return err
			}
			req.ChainMap = &m
			return a.runMint(cmd, &f, req)
		},
	}
	f.register(cmd)
	cmd.Flags().StringArrayVar(&chains, "chain", nil, "chain target id=content_address; repeatable, order is kept")
	_ = cmd.MarkFlagRequired("chain")
	return cmd
}

// parseChains reads "id=cid" pairs in the order given.
func parseChains(pairs []string) (record.ChainMap, error) {
	var m record.ChainMap
	for _, p := range pairs {
		idText, cid, ok := strings.Cut(p, "=")
		if !ok {
			return m, fmt.Errorf("%w: chain %q is not id=content_address", common.ErrInvalidRecord, p)
		}
		id, err := strconv.ParseInt(strings.TrimSpace(idText), 10, 64)
		if err != nil {
			return m, fmt.Errorf("%w: chain id %q is not an integer", common.ErrInvalidRecord, idText)
		}
		if err := m.Set(id, strings.TrimSpace(cid)); err != nil {
			return m, err
		}
	}
	return m, nil
}
