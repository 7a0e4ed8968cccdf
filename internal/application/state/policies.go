package state

import "github.com/jhoicas/ventas-xp/internal/domain/entity"

// BrandPolicy reconciliación de marcas.
var BrandPolicy = MatchPolicy[entity.Brand]{
	ID:   func(b entity.Brand) string { return b.ID },
	Name: func(b entity.Brand) string { return b.Name },
	Merge: func(existing, incoming entity.Brand, id, name string) entity.Brand {
		out := incoming
		out.ID = id
		out.Name = name
		if out.OwnerID == "" {
			out.OwnerID = existing.OwnerID
		}
		return out
	},
	Assign: func(b entity.Brand, id, name string) entity.Brand {
		b.ID = id
		b.Name = name
		return b
	},
	IDPrefix: "br_",
}

// CategoryPolicy reconciliación de categorías.
var CategoryPolicy = MatchPolicy[entity.Category]{
	ID:   func(c entity.Category) string { return c.ID },
	Name: func(c entity.Category) string { return c.Name },
	Merge: func(existing, incoming entity.Category, id, name string) entity.Category {
		out := incoming
		out.ID = id
		out.Name = name
		if out.OwnerID == "" {
			out.OwnerID = existing.OwnerID
		}
		if out.Slug == "" {
			out.Slug = existing.Slug
		}
		return out
	},
	Assign: func(c entity.Category, id, name string) entity.Category {
		c.ID = id
		c.Name = name
		return c
	},
	IDPrefix: "cat_",
}
