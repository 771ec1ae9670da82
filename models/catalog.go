package models

import "go.mongodb.org/mongo-driver/bson/primitive"

type Category struct {
	ID          primitive.ObjectID `json:"_id,omitempty" bson:"_id,omitempty"`
	Name        string             `json:"category_name" bson:"category_name"`
	Description string             `json:"category_description" bson:"category_description"`
}

type Product struct {
	ID          primitive.ObjectID `json:"_id,omitempty" bson:"_id,omitempty"`
	Name        string             `json:"product_name" bson:"product_name"`
	Description string             `json:"product_description" bson:"product_description"`
	Price       float64            `json:"product_price" bson:"product_price"`
	Category    string             `json:"product_category" bson:"product_category"`
	Stock       float64            `json:"product_stock" bson:"product_stock"`
}
